package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaiso/Evalflow/internal/domain"
)

// Reporter получает события выполнения job.
//
// Report вызывается конкурентно из горутин шагов и задач, реализации
// должны быть потокобезопасны. Ошибка Report логируется и не влияет
// на планирование.
type Reporter interface {
	Report(ctx context.Context, ev domain.Event) error
}

// ReporterFunc — адаптер функции к Reporter.
type ReporterFunc func(ctx context.Context, ev domain.Event) error

// Report вызывает f(ctx, ev).
func (f ReporterFunc) Report(ctx context.Context, ev domain.Event) error {
	return f(ctx, ev)
}

// Reporters рассылает событие всем получателям по порядку.
// Ошибки собираются через errors.Join, рассылка не прерывается.
type Reporters []Reporter

// Report реализует Reporter.
func (rs Reporters) Report(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogReporter пишет события в slog.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter создаёт LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report реализует Reporter.
func (r *LogReporter) Report(ctx context.Context, ev domain.Event) error {
	attrs := []any{
		"event", ev.Kind,
		"job_id", ev.JobID,
		"status", ev.Status,
	}
	if ev.Step != "" {
		attrs = append(attrs, "step", ev.Step)
	}
	if ev.Kind == domain.EventTaskFinished {
		attrs = append(attrs, "index", ev.Index, "total", ev.Total)
	}
	if d := ev.Duration(); d > 0 {
		attrs = append(attrs, "duration", d)
	}
	if ev.Error != "" {
		attrs = append(attrs, "error", ev.Error)
	}

	level := slog.LevelInfo
	switch {
	case ev.Kind == domain.EventTaskFinished:
		level = slog.LevelDebug
	case ev.Error != "":
		level = slog.LevelWarn
	}

	r.logger.Log(ctx, level, "job event", attrs...)
	return nil
}
