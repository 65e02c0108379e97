package domain

import (
	"slices"
	"sync"
	"time"
)

// Step — шаг pipeline во время выполнения.
//
// Step создаётся планировщиком из StepSpec. Статус защищён собственным
// мьютексом: планировщик только читает его, а пишет executor, которому
// шаг назначен. Назначение происходит ровно один раз, через
// Transition(INIT, RUNNING).
type Step struct {
	// Name — уникальное имя шага.
	Name string

	// Needs — непустые имена зависимостей (совпадают с рёбрами DAG).
	Needs []string

	// Handler — идентификатор handler'а.
	Handler string

	// Concurrency — размер пула воркеров.
	Concurrency int

	// TaskNum — количество задач.
	TaskNum int

	// Timeout — таймаут одной задачи (0 — без таймаута).
	Timeout time.Duration

	// Tasks — задачи шага, упорядоченные по Index.
	Tasks []*Task

	mu         sync.RWMutex
	status     StepStatus
	startedAt  *time.Time
	finishedAt *time.Time
}

// NewStep создаёт шаг в статусе INIT без задач.
func NewStep(spec *StepSpec) *Step {
	return &Step{
		Name:        spec.Name,
		Needs:       slices.Clone(spec.Dependencies()),
		Handler:     spec.Handler,
		Concurrency: spec.Workers(),
		TaskNum:     spec.Tasks(),
		Timeout:     time.Duration(spec.TimeoutSec) * time.Second,
		Tasks:       make([]*Task, 0, spec.Tasks()),
		status:      StepStatusInit,
	}
}

// Status возвращает текущий статус шага.
func (s *Step) Status() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Transition атомарно переводит шаг из from в to.
// Возвращает false, если текущий статус не from или переход недопустим.
func (s *Step) Transition(from, to StepStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != from || !from.CanTransition(to) {
		return false
	}

	now := time.Now()
	switch to {
	case StepStatusRunning:
		s.startedAt = &now
	default:
		s.finishedAt = &now
	}
	s.status = to

	return true
}

// StartedAt возвращает время перехода в RUNNING.
func (s *Step) StartedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// FinishedAt возвращает время перехода в терминальный статус.
func (s *Step) FinishedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finishedAt
}

// Duration возвращает время выполнения шага.
func (s *Step) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt == nil || s.finishedAt == nil {
		return 0
	}
	return s.finishedAt.Sub(*s.startedAt)
}

// TaskCounts возвращает количество успешных и упавших задач.
// Вызывать только после завершения executor'а.
func (s *Step) TaskCounts() (succeeded, failed int) {
	for _, task := range s.Tasks {
		switch task.Status {
		case TaskStatusSucceeded:
			succeeded++
		case TaskStatusFailed:
			failed++
		}
	}
	return succeeded, failed
}
