package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind — тип события выполнения.
type EventKind string

const (
	EventJobStarted   EventKind = "JOB_STARTED"
	EventJobFinished  EventKind = "JOB_FINISHED"
	EventStepStarted  EventKind = "STEP_STARTED"
	EventStepFinished EventKind = "STEP_FINISHED"
	EventTaskFinished EventKind = "TASK_FINISHED"
)

// Event — событие жизненного цикла job, шага или задачи.
//
// Поля заполняются по типу события: Step пуст для JOB_*,
// Index и Total имеют смысл только для TASK_FINISHED,
// Succeeded/Failed — для STEP_FINISHED.
type Event struct {
	Kind  EventKind `json:"kind"`
	JobID uuid.UUID `json:"job_id"`
	Job   string    `json:"job,omitempty"`
	Step  string    `json:"step,omitempty"`
	Index int       `json:"index"`
	Total int       `json:"total,omitempty"`

	// Status — статус job, шага или задачи в зависимости от Kind.
	Status string `json:"status"`

	Succeeded int `json:"succeeded,omitempty"`
	Failed    int `json:"failed,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Duration возвращает длительность между StartedAt и FinishedAt.
func (e Event) Duration() time.Duration {
	if e.StartedAt == nil || e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(*e.StartedAt)
}

// TaskFinishedEvent строит событие завершения задачи.
func TaskFinishedEvent(task *Task) Event {
	return Event{
		Kind:       EventTaskFinished,
		JobID:      task.Context.JobID,
		Step:       task.Step,
		Index:      task.Index,
		Total:      task.Context.Total,
		Status:     string(task.Status),
		StartedAt:  task.StartedAt,
		FinishedAt: task.FinishedAt,
		Error:      task.Error,
		Timestamp:  time.Now(),
	}
}
