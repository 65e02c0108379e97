package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCmd создаёт команду локального запуска pipeline.
func NewRunCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	var metricsAddr string
	var failFast bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a pipeline locally",
		Long: `Run a pipeline file (JSON or YAML) in this process.

Events are logged and, when configured, recorded in PostgreSQL (db_url)
and published to RabbitMQ (rabbitmq_url). The command exits with an
error unless every step succeeded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := outputFn()

			spec, err := env.loadSpec(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = env.Config.MetricsAddr
			}
			if !cmd.Flags().Changed("fail-fast") {
				failFast = env.Config.FailFast
			}

			sinks, err := env.openSinks(cmd.Context(), metricsAddr)
			if err != nil {
				return err
			}
			defer sinks.Close()

			summary, err := env.execute(cmd.Context(), spec, sinks.reporters, policyFor(failFast))
			if summary != nil {
				if err := printSummary(out, summary); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}
			return checkSummary(summary)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while running")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop launching steps after the first failure")

	return cmd
}
