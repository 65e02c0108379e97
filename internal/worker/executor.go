package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/steps"
)

// Reporter получает события завершения задач.
// Совпадает по методам с scheduler.Reporter.
type Reporter interface {
	Report(ctx context.Context, ev domain.Event) error
}

// Config — конфигурация Executor.
type Config struct {
	// Reporter — получатель TASK_FINISHED (опционально).
	Reporter Reporter

	// Logger
	Logger *slog.Logger
}

// Executor выполняет все задачи одного шага.
//
// Задачи запускаются на ограниченном пуле (errgroup.SetLimit) размером
// step.Concurrency. Ошибка или паника handler'а делает FAILED только свою
// задачу. После завершения всех задач шаг переходит в SUCCESS, если все
// задачи успешны, иначе в FAILED.
//
// Executor не хранит состояния между вызовами и может обслуживать
// несколько шагов одновременно.
type Executor struct {
	reporter Reporter
	logger   *slog.Logger
}

// StepResult — итог выполнения шага.
type StepResult struct {
	Step      string
	Status    domain.StepStatus
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// New создаёт новый Executor.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		reporter: cfg.Reporter,
		logger:   logger,
	}
}

// Execute выполняет задачи шага и переводит шаг в терминальный статус.
//
// Шаг должен быть в статусе RUNNING. Ошибки handler'ов не возвращаются:
// они записаны в задачи, а отказ шага выражен только его статусом.
func (e *Executor) Execute(ctx context.Context, step *domain.Step, handler steps.Handler) (*StepResult, error) {
	if step.Status() != domain.StepStatusRunning {
		return nil, fmt.Errorf("%w: %s is %s", ErrStepNotRunning, step.Name, step.Status())
	}

	start := time.Now()
	logger := e.logger.With("step", step.Name)

	logger.Info("step started",
		"tasks", len(step.Tasks),
		"concurrency", step.Concurrency,
	)

	var g errgroup.Group
	g.SetLimit(max(1, min(step.Concurrency, len(step.Tasks))))

	for _, task := range step.Tasks {
		g.Go(func() error {
			e.runTask(ctx, step, task, handler)
			return nil
		})
	}

	// Горутины всегда возвращают nil.
	_ = g.Wait()

	result := &StepResult{Step: step.Name}
	result.Succeeded, result.Failed = step.TaskCounts()

	result.Status = domain.StepStatusSuccess
	if result.Failed > 0 || result.Succeeded != len(step.Tasks) {
		result.Status = domain.StepStatusFailed
	}
	step.Transition(domain.StepStatusRunning, result.Status)
	result.Duration = time.Since(start)

	logger.Info("step finished",
		"status", result.Status,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return result, nil
}

// runTask выполняет одну задачу. Задача принадлежит только этой горутине.
func (e *Executor) runTask(ctx context.Context, step *domain.Step, task *domain.Task, handler steps.Handler) {
	task.MarkRunning()

	err := e.invoke(ctx, step, task, handler)
	if err != nil {
		task.MarkFailed(err.Error())

		var hErr *TaskHandlerError
		panicked := errors.As(err, &hErr) && hErr.Panic
		e.logger.Warn("task failed",
			"step", step.Name,
			"index", task.Index,
			"panic", panicked,
			"error", err,
		)
	} else {
		task.MarkSucceeded()
		e.logger.Debug("task succeeded",
			"step", step.Name,
			"index", task.Index,
			"duration", task.Duration(),
		)
	}

	if e.reporter != nil {
		if rErr := e.reporter.Report(context.WithoutCancel(ctx), domain.TaskFinishedEvent(task)); rErr != nil {
			e.logger.Warn("failed to report task",
				"step", step.Name,
				"index", task.Index,
				"error", rErr,
			)
		}
	}
}

// invoke вызывает handler с таймаутом шага и перехватом паники.
func (e *Executor) invoke(ctx context.Context, step *domain.Step, task *domain.Task, handler steps.Handler) (err error) {
	if handler == nil {
		return &TaskHandlerError{Step: step.Name, Index: task.Index, Err: ErrNilHandler}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TaskHandlerError{Step: step.Name, Index: task.Index, Err: fmt.Errorf("%w: %v", steps.ErrCancelled, ctxErr)}
	}

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panic",
				"step", step.Name,
				"index", task.Index,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = &TaskHandlerError{
				Step:  step.Name,
				Index: task.Index,
				Err:   fmt.Errorf("%w: %v", ErrTaskPanic, r),
				Panic: true,
			}
		}
	}()

	if hErr := handler.Run(ctx, task.Context); hErr != nil {
		if step.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			hErr = fmt.Errorf("%w after %s: %w", ErrTaskTimeout, step.Timeout, hErr)
		}
		return &TaskHandlerError{Step: step.Name, Index: task.Index, Err: hErr}
	}

	return nil
}
