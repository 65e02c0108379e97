package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Evalflow/internal/domain"
)

type jobWriter interface {
	Upsert(ctx context.Context, job *domain.Job) error
}

type stepWriter interface {
	Upsert(ctx context.Context, step *domain.StepRecord) error
}

type taskWriter interface {
	Upsert(ctx context.Context, task *domain.TaskRecord) error
}

// Recorder сохраняет события выполнения в PostgreSQL.
// Реализует scheduler.Reporter.
type Recorder struct {
	jobs  jobWriter
	steps stepWriter
	tasks taskWriter
}

// NewRecorder создаёт Recorder поверх пула.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{
		jobs:  NewJobRepo(pool),
		steps: NewStepRepo(pool),
		tasks: NewTaskRepo(pool),
	}
}

// Report сохраняет событие.
func (r *Recorder) Report(ctx context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.EventJobStarted, domain.EventJobFinished:
		job := domain.JobFromEvent(ev)
		return r.jobs.Upsert(ctx, &job)

	case domain.EventStepStarted, domain.EventStepFinished:
		step := domain.StepRecordFromEvent(ev)
		return r.steps.Upsert(ctx, &step)

	case domain.EventTaskFinished:
		task := domain.TaskRecordFromEvent(ev)
		return r.tasks.Upsert(ctx, &task)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Kind)
	}
}
