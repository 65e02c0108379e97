package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Evalflow/internal/engine"
)

// NewValidateCmd создаёт команду проверки pipeline без запуска.
func NewValidateCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a pipeline file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()

			spec, err := engine.LoadJobSpec(args[0])
			if err != nil {
				return err
			}
			if err := engine.ValidateJob(spec, env.registry()); err != nil {
				return err
			}

			tasks := 0
			for i := range spec.Steps {
				tasks += spec.Steps[i].Tasks()
			}
			outputFn().Notef("%s: valid (%d steps, %d tasks)", spec.Name, len(spec.Steps), tasks)
			return nil
		},
	}
}

// graphRow — вершина графа в выводе evalflow graph.
type graphRow struct {
	Step        string   `json:"step"`
	Handler     string   `json:"handler"`
	Tasks       int      `json:"tasks"`
	Concurrency int      `json:"concurrency"`
	Needs       []string `json:"needs,omitempty"`
}

// NewGraphCmd создаёт команду вывода графа шагов.
func NewGraphCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Print steps in topological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, err := engine.LoadJobSpec(args[0])
			if err != nil {
				return err
			}
			if err := engine.ValidateJob(spec, envFn().registry()); err != nil {
				return err
			}
			dag, err := engine.BuildGraph(spec)
			if err != nil {
				return err
			}

			if dot {
				out.Line(renderDot(spec.Name, dag))
				return nil
			}

			byName := make(map[string]int, len(spec.Steps))
			for i := range spec.Steps {
				byName[spec.Steps[i].Name] = i
			}

			order := dag.TopologicalOrder()
			t := NewTable("STEP", "HANDLER", "TASKS", "WORKERS", "NEEDS")
			data := make([]graphRow, len(order))
			for i, name := range order {
				step := &spec.Steps[byName[name]]
				data[i] = graphRow{
					Step:        name,
					Handler:     step.Handler,
					Tasks:       step.Tasks(),
					Concurrency: step.Workers(),
					Needs:       dag.Predecessors(name),
				}
				t.Row(name, step.Handler, step.Tasks(), step.Workers(), strings.Join(data[i].Needs, ","))
			}

			return out.Render(t, data)
		},
	}

	cmd.Flags().BoolVar(&dot, "dot", false, "Print the graph in Graphviz DOT format")

	return cmd
}

// renderDot выводит граф в формате DOT.
func renderDot(name string, dag *engine.DAG) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	for _, v := range dag.TopologicalOrder() {
		fmt.Fprintf(&b, "  %q;\n", v)
	}
	for _, v := range dag.TopologicalOrder() {
		for _, succ := range dag.Successors(v) {
			fmt.Fprintf(&b, "  %q -> %q;\n", v, succ)
		}
	}
	b.WriteString("}")
	return b.String()
}
