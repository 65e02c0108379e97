package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Evalflow/internal/domain"
)

// JobResponse — ответ с job.
type JobResponse struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Version    string           `json:"version,omitempty"`
	Status     domain.JobStatus `json:"status"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Name:       j.Name,
		Version:    j.Version,
		Status:     j.Status,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		DurationMs: j.Duration().Milliseconds(),
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
	}
}

// StepResponse — ответ со статусом шага.
type StepResponse struct {
	Name       string            `json:"name"`
	Status     domain.StepStatus `json:"status"`
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// StepFromDomain конвертирует domain.StepRecord в StepResponse.
func StepFromDomain(s domain.StepRecord) StepResponse {
	return StepResponse{
		Name:       s.Name,
		Status:     s.Status,
		Total:      s.Total,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		DurationMs: s.Duration().Milliseconds(),
		Error:      s.Error,
	}
}

// TaskResponse — ответ с результатом задачи.
type TaskResponse struct {
	Step       string            `json:"step"`
	Index      int               `json:"index"`
	Status     domain.TaskStatus `json:"status"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// TaskFromDomain конвертирует domain.TaskRecord в TaskResponse.
func TaskFromDomain(t domain.TaskRecord) TaskResponse {
	return TaskResponse{
		Step:       t.Step,
		Index:      t.Index,
		Status:     t.Status,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		DurationMs: t.Duration().Milliseconds(),
		Error:      t.Error,
	}
}
