package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/worker"
)

// FailurePolicy — реакция на упавший шаг.
type FailurePolicy int

const (
	// Continue — независимые ветки продолжают работу,
	// зависимые от упавшего шага не запускаются.
	Continue FailurePolicy = iota

	// FailFast — после первого FAILED шага новые шаги не запускаются,
	// уже запущенные доводятся до конца.
	FailFast
)

// String возвращает имя политики.
func (p FailurePolicy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "continue"
}

// Config — конфигурация Scheduler.
type Config struct {
	// Reporter — получатель событий (опционально).
	Reporter Reporter

	// Policy — политика отказов. FailFast также включается JobSpec.FailFast.
	Policy FailurePolicy

	// Executor — исполнитель шагов (опционально; если nil — worker.New).
	Executor *worker.Executor

	// Logger
	Logger *slog.Logger
}

// Scheduler выполняет шаги job волнами по готовности.
//
// Координатор — единственная горутина цикла Run. Каждый готовый шаг
// переводится INIT → RUNNING и запускается в своей горутине; по
// завершении шага координатор получает сигнал из канала, пересчитывает
// готовые шаги и сразу запускает разблокированные. Глобального барьера
// между волнами нет.
type Scheduler struct {
	state    *JobState
	executor *worker.Executor
	reporter Reporter
	policy   FailurePolicy
	logger   *slog.Logger
}

// stepDone — сигнал завершения шага.
type stepDone struct {
	step   *domain.Step
	result *worker.StepResult
	err    error
}

// New создаёт Scheduler для state.
func New(state *JobState, cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.Policy
	if state.Spec.FailFast {
		policy = FailFast
	}

	s := &Scheduler{
		state:    state,
		reporter: cfg.Reporter,
		policy:   policy,
		logger:   logger.With("job_id", state.Job().ID, "job", state.Spec.Name),
	}

	s.executor = cfg.Executor
	if s.executor == nil {
		var taskReporter worker.Reporter
		if s.reporter != nil {
			taskReporter = ReporterFunc(func(ctx context.Context, ev domain.Event) error {
				ev.Job = state.Spec.Name
				return s.reporter.Report(ctx, ev)
			})
		}
		s.executor = worker.New(worker.Config{
			Reporter: taskReporter,
			Logger:   s.logger,
		})
	}

	return s
}

// State возвращает состояние job.
func (s *Scheduler) State() *JobState {
	return s.state
}

// Run выполняет все шаги job и возвращает итог.
//
// Если все шаги уже в терминальном статусе, Run сразу возвращает итог,
// ничего не запуская. Параллельный вызов Run для того же JobState
// возвращает ErrAlreadyRunning.
//
// Отказ шагов не является ошибкой Run: он выражен в Summary.Status.
// Ошибка возвращается только при отмене ctx (вместе с итогом).
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	if !s.state.acquire() {
		return nil, ErrAlreadyRunning
	}
	defer s.state.release()

	if s.state.IsFinished() {
		s.logger.Debug("job already finished, nothing to run")
		return buildSummary(s.state), nil
	}

	start := time.Now()
	job := s.state.markJobRunning()
	s.logger.Info("job started",
		"steps", len(s.state.Spec.Steps),
		"policy", s.policy,
	)
	s.report(ctx, domain.Event{
		Kind:      domain.EventJobStarted,
		JobID:     job.ID,
		Job:       job.Name,
		Status:    string(job.Status),
		StartedAt: job.StartedAt,
	})

	s.loop(ctx)
	s.blockRemaining(ctx)

	status, errMsg := jobOutcome(s.state.Steps())
	job = s.state.markJobFinished(status, errMsg)

	s.logger.Info("job finished",
		"status", status,
		"duration", time.Since(start),
	)
	s.report(ctx, domain.Event{
		Kind:       domain.EventJobFinished,
		JobID:      job.ID,
		Job:        job.Name,
		Status:     string(job.Status),
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
		Error:      job.Error,
	})

	summary := buildSummary(s.state)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return summary, nil
}

// loop — цикл координатора. Завершается, когда нет ни готовых,
// ни выполняющихся шагов.
func (s *Scheduler) loop(ctx context.Context) {
	done := make(chan stepDone)
	running := 0
	failed := false

	for {
		if s.canLaunch(ctx, failed) {
			for _, step := range s.state.ReadySteps() {
				if !step.Transition(domain.StepStatusInit, domain.StepStatusRunning) {
					continue
				}
				running++
				s.launch(ctx, step, done)
			}
		}

		if running == 0 {
			return
		}

		d := <-done
		running--

		if d.err != nil {
			s.logger.Error("step execution error", "step", d.step.Name, "error", d.err)
			d.step.Transition(domain.StepStatusRunning, domain.StepStatusFailed)
		}
		if d.step.Status() == domain.StepStatusFailed {
			failed = true
		}

		s.reportStepFinished(ctx, d.step, "")
	}
}

// canLaunch проверяет, можно ли запускать новые шаги.
func (s *Scheduler) canLaunch(ctx context.Context, failed bool) bool {
	if ctx.Err() != nil {
		return false
	}
	return !(failed && s.policy == FailFast)
}

// launch запускает шаг в отдельной горутине.
func (s *Scheduler) launch(ctx context.Context, step *domain.Step, done chan<- stepDone) {
	s.report(ctx, domain.Event{
		Kind:      domain.EventStepStarted,
		JobID:     s.state.Job().ID,
		Step:      step.Name,
		Total:     len(step.Tasks),
		Status:    string(step.Status()),
		StartedAt: step.StartedAt(),
	})

	handler := s.state.Handler(step.Name)

	go func() {
		result, err := s.executor.Execute(ctx, step, handler)
		done <- stepDone{step: step, result: result, err: err}
	}()
}

// blockRemaining переводит оставшиеся INIT шаги в BLOCKED.
func (s *Scheduler) blockRemaining(ctx context.Context) {
	for _, step := range s.state.Steps() {
		if step.Status() != domain.StepStatusInit {
			continue
		}

		reason := "not started"
		if needs := s.state.UnsatisfiedNeeds(step); len(needs) > 0 {
			reason = "needs " + strings.Join(needs, ", ")
		} else if ctx.Err() != nil {
			reason = "cancelled"
		} else if s.policy == FailFast {
			reason = "fail-fast"
		}

		if !step.Transition(domain.StepStatusInit, domain.StepStatusBlocked) {
			continue
		}

		s.logger.Warn("step blocked", "step", step.Name, "reason", reason)
		s.reportStepFinished(ctx, step, "blocked: "+reason)
	}
}

func (s *Scheduler) reportStepFinished(ctx context.Context, step *domain.Step, errMsg string) {
	succeeded, failed := step.TaskCounts()
	if errMsg == "" && failed > 0 {
		errMsg = fmt.Sprintf("%d of %d tasks failed", failed, len(step.Tasks))
	}

	s.report(ctx, domain.Event{
		Kind:       domain.EventStepFinished,
		JobID:      s.state.Job().ID,
		Step:       step.Name,
		Total:      len(step.Tasks),
		Status:     string(step.Status()),
		Succeeded:  succeeded,
		Failed:     failed,
		StartedAt:  step.StartedAt(),
		FinishedAt: step.FinishedAt(),
		Error:      errMsg,
	})
}

// report отправляет событие. Ошибки только логируются.
func (s *Scheduler) report(ctx context.Context, ev domain.Event) {
	if s.reporter == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Job == "" {
		ev.Job = s.state.Spec.Name
	}

	// События завершения доставляются и после отмены запуска.
	if err := s.reporter.Report(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("failed to report event",
			"event", ev.Kind,
			"step", ev.Step,
			"error", err,
		)
	}
}
