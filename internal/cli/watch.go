package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/mq"
)

// NewWatchCmd создаёт команду просмотра событий из RabbitMQ.
func NewWatchCmd(envFn func() *Env, outputFn func() *Output) *cobra.Command {
	var (
		jobID     string
		withTasks bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream job events from RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := outputFn()

			if env.Config.RabbitMQURL == "" {
				return errors.New("rabbitmq_url is not configured (set EVALFLOW_RABBITMQ_URL)")
			}

			conn, err := mq.Dial(env.Config.RabbitMQURL, env.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			patterns := []string{mq.BindJobs, mq.BindSteps}
			if withTasks {
				patterns = append(patterns, mq.BindTasks)
			}

			queue, err := mq.DeclareWatchQueue(cmd.Context(), conn, patterns...)
			if err != nil {
				return err
			}

			consumer := mq.NewConsumer(conn, mq.ConsumerConfig{
				Queue:   queue,
				Handler: eventPrinter(out, jobID),
				Logger:  env.Logger,
			})

			err = consumer.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Only events of this job ID")
	cmd.Flags().BoolVar(&withTasks, "tasks", false, "Include per-task events")

	return cmd
}

// eventPrinter печатает события, отфильтрованные по jobID.
func eventPrinter(out *Output, jobID string) mq.Handler {
	return func(_ context.Context, ev domain.Event) error {
		if jobID != "" && ev.JobID.String() != jobID {
			return nil
		}
		if out.JSONMode() {
			return out.JSON(ev)
		}
		out.Line(formatEvent(ev))
		return nil
	}
}

// formatEvent: "15:04:05 STEP_FINISHED mnist-eval/predict FAILED (3/4 ok) oom".
func formatEvent(ev domain.Event) string {
	var b strings.Builder

	b.WriteString(ev.Timestamp.Local().Format(time.TimeOnly))
	b.WriteString(" ")
	b.WriteString(string(ev.Kind))
	b.WriteString(" ")
	b.WriteString(ev.Job)

	switch ev.Kind {
	case domain.EventStepStarted, domain.EventStepFinished:
		fmt.Fprintf(&b, "/%s", ev.Step)
	case domain.EventTaskFinished:
		fmt.Fprintf(&b, "/%s[%d/%d]", ev.Step, ev.Index, ev.Total)
	}

	b.WriteString(" ")
	b.WriteString(ev.Status)

	if ev.Kind == domain.EventStepFinished && ev.Total > 0 {
		fmt.Fprintf(&b, " (%d/%d ok)", ev.Succeeded, ev.Total)
	}
	if d := ev.Duration(); d > 0 {
		fmt.Fprintf(&b, " %s", d.Round(time.Millisecond))
	}
	if ev.Error != "" {
		b.WriteString(" ")
		b.WriteString(ev.Error)
	}
	return b.String()
}
