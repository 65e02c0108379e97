package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobFunc — запуск pipeline по расписанию. tick — плановое время запуска.
type JobFunc func(ctx context.Context, tick time.Time) error

// Config — конфигурация Runner.
type Config struct {
	Schedule Schedule
	Job      JobFunc

	// MaxRuns — остановиться после MaxRuns запусков (0 — без ограничения).
	MaxRuns int

	// Logger
	Logger *slog.Logger
}

// Runner запускает JobFunc по расписанию.
//
// Запуски последовательны: если job дольше интервала, пропущенные
// тики не наверстываются, следующий вычисляется от момента завершения.
// Ошибка одного запуска логируется и не останавливает Runner.
type Runner struct {
	schedule Schedule
	job      JobFunc
	maxRuns  int
	logger   *slog.Logger
}

// NewRunner создаёт Runner. Возвращает ошибку для невалидного расписания.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Job == nil {
		return nil, fmt.Errorf("cron: job func is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		schedule: cfg.Schedule,
		job:      cfg.Job,
		maxRuns:  cfg.MaxRuns,
		logger:   logger,
	}, nil
}

// Run блокируется до отмены ctx или исчерпания MaxRuns.
// Возвращает количество выполненных запусков.
func (r *Runner) Run(ctx context.Context) (int, error) {
	runs := 0

	for r.maxRuns == 0 || runs < r.maxRuns {
		next, err := NextRun(r.schedule, time.Now())
		if err != nil {
			return runs, err
		}

		r.logger.Debug("next scheduled run", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return runs, ctx.Err()
		case tick := <-timer.C:
			runs++
			r.logger.Info("scheduled run started", "tick", tick.UTC(), "run", runs)

			if err := r.job(ctx, tick); err != nil {
				r.logger.Error("scheduled run failed", "run", runs, "error", err)
				continue
			}
			r.logger.Info("scheduled run completed", "run", runs)
		}
	}

	return runs, nil
}
