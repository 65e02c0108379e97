package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Evalflow/internal/config"
	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/engine"
	"github.com/shaiso/Evalflow/internal/mq"
	"github.com/shaiso/Evalflow/internal/repo"
	"github.com/shaiso/Evalflow/internal/scheduler"
	"github.com/shaiso/Evalflow/internal/steps"
	"github.com/shaiso/Evalflow/internal/telemetry"
)

// ErrJobNotSucceeded — job завершился в статусе FAILED или PARTIAL.
var ErrJobNotSucceeded = errors.New("job did not succeed")

// Env — окружение локальных команд (run, schedule, watch).
type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *steps.Registry
}

func (e *Env) registry() *steps.Registry {
	if e.Registry == nil {
		return steps.DefaultRegistry()
	}
	return e.Registry
}

// loadSpec читает pipeline и подставляет workdir из конфигурации.
func (e *Env) loadSpec(path string) (*domain.JobSpec, error) {
	spec, err := engine.LoadJobSpec(path)
	if err != nil {
		return nil, err
	}
	if spec.Workdir == "" && e.Config != nil {
		spec.Workdir = e.Config.Workdir
	}
	return spec, nil
}

// sinks — получатели событий и функции их закрытия.
type sinks struct {
	reporters scheduler.Reporters
	closers   []func()
}

func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSinks подключает получателей событий по конфигурации:
// лог всегда, PostgreSQL при db_url, RabbitMQ при rabbitmq_url,
// Prometheus при непустом metricsAddr.
func (e *Env) openSinks(ctx context.Context, metricsAddr string) (*sinks, error) {
	s := &sinks{
		reporters: scheduler.Reporters{scheduler.NewLogReporter(e.Logger)},
	}

	if e.Config.DBURL != "" {
		pool, err := repo.NewPool(ctx, e.Config.DBURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect db: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			s.Close()
			return nil, err
		}
		s.reporters = append(s.reporters, repo.NewRecorder(pool))
	}

	if e.Config.RabbitMQURL != "" {
		conn, err := mq.Dial(e.Config.RabbitMQURL, e.Logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })

		if err := mq.SetupTopology(ctx, conn); err != nil {
			s.Close()
			return nil, err
		}
		s.reporters = append(s.reporters, mq.NewPublisher(conn, e.Logger))
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		s.reporters = append(s.reporters, telemetry.NewMetrics(reg))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			e.Logger.Info("metrics server started", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.Logger.Error("metrics server failed", "error", err)
			}
		}()
		s.closers = append(s.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	return s, nil
}

// execute выполняет spec локально и возвращает итог.
func (e *Env) execute(ctx context.Context, spec *domain.JobSpec, reporter scheduler.Reporter, policy scheduler.FailurePolicy) (*scheduler.Summary, error) {
	state, err := scheduler.NewJobState(spec, e.registry())
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(state, scheduler.Config{
		Reporter: reporter,
		Policy:   policy,
		Logger:   e.Logger,
	})
	return sched.Run(ctx)
}

// checkSummary превращает неуспешный итог в ошибку.
func checkSummary(summary *scheduler.Summary) error {
	if summary.Status == domain.JobStatusSucceeded {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrJobNotSucceeded, summary.Status, summary.Error)
}

func printSummary(out *Output, summary *scheduler.Summary) error {
	t := NewTable("STEP", "STATUS", "TASKS", "SUCCEEDED", "FAILED", "DURATION")
	for _, s := range summary.Steps {
		t.Row(s.Name, s.Status, s.Tasks, s.Succeeded, s.Failed, s.Duration.Round(time.Millisecond))
	}
	if err := out.Render(t, summary); err != nil {
		return err
	}
	if !out.JSONMode() {
		out.Notef("Job %s (%s): %s in %s",
			summary.Job, summary.JobID, summary.Status, summary.Duration.Round(time.Millisecond))
	}
	return nil
}

func policyFor(failFast bool) scheduler.FailurePolicy {
	if failFast {
		return scheduler.FailFast
	}
	return scheduler.Continue
}
