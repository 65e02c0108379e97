package domain

import (
	"time"
)

// Task — одна партиция шага, атомарная единица выполнения.
//
// Task создаётся вместе со Step (TaskNum экземпляров) и принадлежит
// ровно одному воркеру executor'а. Задачи не общаются друг с другом.
type Task struct {
	// Index — номер партиции.
	Index int `json:"index"`

	// Step — имя шага-владельца.
	Step string `json:"step"`

	// Context — параметры задачи для handler'а.
	Context TaskContext `json:"context"`

	// Status — текущий статус task.
	Status TaskStatus `json:"status"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewTask создаёт task в статусе PENDING.
func NewTask(step string, tc TaskContext) *Task {
	return &Task{
		Index:   tc.Index,
		Step:    step,
		Context: tc,
		Status:  TaskStatusPending,
	}
}

// Duration возвращает продолжительность выполнения.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если task завершён.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// Succeeded возвращает true, если task завершился успешно.
func (t *Task) Succeeded() bool {
	return t.Status == TaskStatusSucceeded
}

// MarkRunning переводит task в статус RUNNING.
func (t *Task) MarkRunning() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
}

// MarkSucceeded переводит task в статус SUCCEEDED.
func (t *Task) MarkSucceeded() {
	now := time.Now()
	t.Status = TaskStatusSucceeded
	t.FinishedAt = &now
}

// MarkFailed переводит task в статус FAILED с ошибкой.
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.FinishedAt = &now
	t.Error = err
}
