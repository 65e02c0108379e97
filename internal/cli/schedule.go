package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Evalflow/internal/cron"
)

// NewScheduleCmd создаёт команду периодического запуска pipeline.
func NewScheduleCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	var (
		sched       cron.Schedule
		maxRuns     int
		metricsAddr string
		failFast    bool
	)

	cmd := &cobra.Command{
		Use:   "schedule FILE",
		Short: "Run a pipeline on a cron schedule or fixed interval",
		Example: `  evalflow schedule nightly.yaml --cron "0 3 * * *" --tz Europe/Moscow
  evalflow schedule smoke.json --every 15m --max-runs 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := outputFn()

			spec, err := env.loadSpec(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("fail-fast") {
				failFast = env.Config.FailFast
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = env.Config.MetricsAddr
			}

			sinks, err := env.openSinks(cmd.Context(), metricsAddr)
			if err != nil {
				return err
			}
			defer sinks.Close()

			runner, err := cron.NewRunner(cron.Config{
				Schedule: sched,
				MaxRuns:  maxRuns,
				Logger:   env.Logger,
				Job: func(ctx context.Context, tick time.Time) error {
					summary, err := env.execute(ctx, spec, sinks.reporters, policyFor(failFast))
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
			})
			if err != nil {
				return err
			}

			next, err := cron.NextRun(sched, time.Now())
			if err != nil {
				return err
			}
			out.Notef("Scheduled %s, next run at %s", spec.Name, next.Format(time.RFC3339))

			runs, err := runner.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				out.Notef("Stopped after %d runs", runs)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&sched.CronExpr, "cron", "", "Cron expression (5 fields or @descriptor)")
	cmd.Flags().DurationVar(&sched.Interval, "every", 0, "Fixed interval between runs")
	cmd.Flags().StringVar(&sched.Timezone, "tz", "UTC", "Timezone for cron expressions")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "Stop after N runs (0 = forever)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop launching steps after the first failure")
	cmd.MarkFlagsMutuallyExclusive("cron", "every")
	cmd.MarkFlagsOneRequired("cron", "every")

	return cmd
}
