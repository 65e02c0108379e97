package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — один запуск pipeline.
//
// Job создаётся когда:
// - Пользователь запускает pipeline через CLI (evalflow run)
// - API получает POST /api/v1/jobs
// - cron-триггер срабатывает по расписанию (evalflow schedule)
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// Name — имя pipeline.
	Name string `json:"name"`

	// Version — версия job.
	Version string `json:"version,omitempty"`

	// Status — текущий статус выполнения.
	Status JobStatus `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — описание отказа (список упавших и заблокированных шагов).
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// NewJob создаёт job в статусе PENDING для spec.
func NewJob(spec *JobSpec) *Job {
	return &Job{
		ID:        uuid.New(),
		Name:      spec.Name,
		Version:   spec.Version,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если job ещё не завершён.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён (в любом статусе).
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в статус RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkFinished переводит job в терминальный статус.
func (j *Job) MarkFinished(status JobStatus, errMsg string) {
	now := time.Now()
	j.Status = status
	j.FinishedAt = &now
	j.Error = errMsg
}
