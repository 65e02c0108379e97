package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для истории jobs в evalflow-api.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and submit jobs via the API",
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobStepsCmd(clientFn, outputFn),
		newJobTasksCmd(clientFn, outputFn),
		newJobSubmitCmd(clientFn, outputFn),
		newJobCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func jobTable(jobs ...JobResponse) *Table {
	t := NewTable("ID", "NAME", "STATUS", "DURATION", "ERROR", "CREATED")
	for _, j := range jobs {
		t.Row(j.ID, j.Name, j.Status, formatMs(j.DurationMs), j.Error, j.CreatedAt)
	}
	return t
}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListJobsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := clientFn().ListJobs(opts)
			if err != nil {
				return err
			}

			return outputFn().Render(jobTable(jobs...), jobs)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Filter by pipeline name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, PARTIAL, FAILED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := clientFn().GetJob(args[0])
			if err != nil {
				return err
			}
			return outputFn().Render(jobTable(*job), job)
		},
	}
}

func newJobStepsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps ID",
		Short: "List steps of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := clientFn().ListSteps(args[0])
			if err != nil {
				return err
			}

			t := NewTable("STEP", "STATUS", "TASKS", "SUCCEEDED", "FAILED", "DURATION", "ERROR")
			for _, s := range steps {
				t.Row(s.Name, s.Status, s.Total, s.Succeeded, s.Failed, formatMs(s.DurationMs), s.Error)
			}
			return outputFn().Render(t, steps)
		},
	}
}

func newJobTasksCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var step string

	cmd := &cobra.Command{
		Use:   "tasks ID",
		Short: "List tasks of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := clientFn().ListTasks(args[0], step)
			if err != nil {
				return err
			}

			t := NewTable("STEP", "INDEX", "STATUS", "DURATION", "ERROR")
			for _, task := range tasks {
				t.Row(task.Step, task.Index, task.Status, formatMs(task.DurationMs), task.Error)
			}
			return outputFn().Render(t, tasks)
		},
	}

	cmd.Flags().StringVar(&step, "step", "", "Only tasks of this step")

	return cmd
}

func newJobSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a pipeline file to the API for execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			contentType := "application/json"
			if ext := strings.ToLower(args[0]); strings.HasSuffix(ext, ".yaml") || strings.HasSuffix(ext, ".yml") {
				contentType = "application/yaml"
			}

			job, err := clientFn().SubmitJob(data, contentType)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Notef("Job submitted: %s", job.ID)
			return out.Render(jobTable(*job), job)
		},
	}
}

func newJobCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().CancelJob(args[0]); err != nil {
				return err
			}
			outputFn().Notef("Job cancelled: %s", args[0])
			return nil
		},
	}
}

// formatMs форматирует миллисекунды как time.Duration; 0 — пусто.
func formatMs(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return (time.Duration(ms) * time.Millisecond).String()
}
