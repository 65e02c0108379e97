package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/scheduler"
	"github.com/shaiso/Evalflow/internal/steps"
)

// Ошибки запуска.
var (
	// ErrShuttingDown — сервер останавливается и не принимает job.
	ErrShuttingDown = errors.New("launcher is shutting down")

	// ErrJobNotRunning — job уже завершён или неизвестен.
	ErrJobNotRunning = errors.New("job is not running")
)

// LauncherConfig — конфигурация Launcher.
type LauncherConfig struct {
	// Registry — реестр handler'ов (по умолчанию steps.DefaultRegistry).
	Registry *steps.Registry

	// Reporter — получатель событий всех job.
	Reporter scheduler.Reporter

	// Policy — политика отказов по умолчанию.
	Policy scheduler.FailurePolicy

	// OnSubmit вызывается с PENDING job до начала выполнения.
	OnSubmit func(domain.Job)

	// Logger
	Logger *slog.Logger
}

// Launcher запускает job в фоне внутри процесса API.
type Launcher struct {
	registry *steps.Registry
	reporter scheduler.Reporter
	policy   scheduler.FailurePolicy
	onSubmit func(domain.Job)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// NewLauncher создаёт Launcher.
func NewLauncher(cfg LauncherConfig) *Launcher {
	registry := cfg.Registry
	if registry == nil {
		registry = steps.DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Launcher{
		registry: registry,
		reporter: cfg.Reporter,
		policy:   cfg.Policy,
		onSubmit: cfg.OnSubmit,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		running:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit проверяет spec и запускает job в фоне.
// Возвращает job в статусе PENDING.
func (l *Launcher) Submit(spec *domain.JobSpec) (domain.Job, error) {
	if l.ctx.Err() != nil {
		return domain.Job{}, ErrShuttingDown
	}

	state, err := scheduler.NewJobState(spec, l.registry)
	if err != nil {
		return domain.Job{}, err
	}

	sched := scheduler.New(state, scheduler.Config{
		Reporter: l.reporter,
		Policy:   l.policy,
		Logger:   l.logger,
	})

	job := state.Job()
	if l.onSubmit != nil {
		l.onSubmit(job)
	}
	ctx, cancel := context.WithCancel(l.ctx)

	l.mu.Lock()
	l.running[job.ID] = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.forget(job.ID)

		summary, err := sched.Run(ctx)
		if err != nil {
			l.logger.Warn("job interrupted", "job_id", job.ID, "error", err)
			return
		}
		l.logger.Info("job completed", "job_id", job.ID, "status", summary.Status)
	}()

	return job, nil
}

// Cancel отменяет выполняющийся job.
func (l *Launcher) Cancel(id uuid.UUID) error {
	l.mu.Lock()
	cancel, ok := l.running[id]
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRunning, id)
	}
	cancel()
	return nil
}

// Running возвращает количество выполняющихся job.
func (l *Launcher) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.running)
}

// Shutdown отменяет все job и ждёт их завершения или отмены ctx.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Launcher) forget(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.running[id]; ok {
		cancel()
		delete(l.running, id)
	}
}
