package scheduler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Evalflow/internal/domain"
)

// Summary — итог выполнения job.
type Summary struct {
	JobID    uuid.UUID        `json:"job_id"`
	Job      string           `json:"job"`
	Status   domain.JobStatus `json:"status"`
	Error    string           `json:"error,omitempty"`
	Duration time.Duration    `json:"duration"`
	Steps    []StepSummary    `json:"steps"`
}

// StepSummary — итог выполнения шага.
type StepSummary struct {
	Name      string            `json:"name"`
	Status    domain.StepStatus `json:"status"`
	Tasks     int               `json:"tasks"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Duration  time.Duration     `json:"duration"`
}

// Step возвращает итог шага по имени.
func (s *Summary) Step(name string) (StepSummary, bool) {
	for _, step := range s.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepSummary{}, false
}

// StepsWithStatus возвращает имена шагов в указанном статусе.
func (s *Summary) StepsWithStatus(status domain.StepStatus) []string {
	var names []string
	for _, step := range s.Steps {
		if step.Status == status {
			names = append(names, step.Name)
		}
	}
	return names
}

// buildSummary собирает итог по текущему состоянию шагов.
func buildSummary(state *JobState) *Summary {
	job := state.Job()

	summary := &Summary{
		JobID:    job.ID,
		Job:      job.Name,
		Status:   job.Status,
		Error:    job.Error,
		Duration: job.Duration(),
	}

	for _, step := range state.Steps() {
		succeeded, failed := step.TaskCounts()
		summary.Steps = append(summary.Steps, StepSummary{
			Name:      step.Name,
			Status:    step.Status(),
			Tasks:     len(step.Tasks),
			Succeeded: succeeded,
			Failed:    failed,
			Duration:  step.Duration(),
		})
	}

	return summary
}

// jobOutcome вычисляет итоговый статус job по статусам шагов:
// SUCCEEDED — все шаги SUCCESS, FAILED — ни одного SUCCESS, иначе PARTIAL.
func jobOutcome(steps []*domain.Step) (domain.JobStatus, string) {
	var succeeded int
	var failed, blocked []string

	for _, step := range steps {
		switch step.Status() {
		case domain.StepStatusSuccess:
			succeeded++
		case domain.StepStatusFailed:
			failed = append(failed, step.Name)
		case domain.StepStatusBlocked:
			blocked = append(blocked, step.Name)
		}
	}

	var parts []string
	if len(failed) > 0 {
		parts = append(parts, "failed: "+strings.Join(failed, ", "))
	}
	if len(blocked) > 0 {
		parts = append(parts, "blocked: "+strings.Join(blocked, ", "))
	}
	errMsg := strings.Join(parts, "; ")

	switch {
	case succeeded == len(steps):
		return domain.JobStatusSucceeded, ""
	case succeeded == 0:
		return domain.JobStatusFailed, errMsg
	default:
		return domain.JobStatusPartial, errMsg
	}
}
