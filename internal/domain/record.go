package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepRecord — сохранённое состояние шага (read model для API и CLI).
type StepRecord struct {
	JobID      uuid.UUID  `json:"job_id"`
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Duration возвращает время выполнения шага.
func (r *StepRecord) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// TaskRecord — сохранённое состояние задачи.
type TaskRecord struct {
	JobID      uuid.UUID  `json:"job_id"`
	Step       string     `json:"step"`
	Index      int        `json:"index"`
	Status     TaskStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Duration возвращает время выполнения задачи.
func (r *TaskRecord) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// JobFromEvent строит Job из события JOB_*.
func JobFromEvent(ev Event) Job {
	job := Job{
		ID:         ev.JobID,
		Name:       ev.Job,
		Status:     JobStatus(ev.Status),
		StartedAt:  ev.StartedAt,
		FinishedAt: ev.FinishedAt,
		Error:      ev.Error,
		CreatedAt:  ev.Timestamp,
	}
	if ev.StartedAt != nil {
		job.CreatedAt = *ev.StartedAt
	}
	return job
}

// StepRecordFromEvent строит StepRecord из события STEP_*.
func StepRecordFromEvent(ev Event) StepRecord {
	return StepRecord{
		JobID:      ev.JobID,
		Name:       ev.Step,
		Status:     StepStatus(ev.Status),
		Total:      ev.Total,
		Succeeded:  ev.Succeeded,
		Failed:     ev.Failed,
		StartedAt:  ev.StartedAt,
		FinishedAt: ev.FinishedAt,
		Error:      ev.Error,
	}
}

// TaskRecordFromEvent строит TaskRecord из события TASK_FINISHED.
func TaskRecordFromEvent(ev Event) TaskRecord {
	return TaskRecord{
		JobID:      ev.JobID,
		Step:       ev.Step,
		Index:      ev.Index,
		Status:     TaskStatus(ev.Status),
		StartedAt:  ev.StartedAt,
		FinishedAt: ev.FinishedAt,
		Error:      ev.Error,
	}
}
