package worker

import (
	"errors"
	"fmt"
)

// Ошибки executor'а.
var (
	// ErrStepNotRunning — executor получил шаг не в статусе RUNNING.
	ErrStepNotRunning = errors.New("step is not in RUNNING status")

	// ErrTaskPanic — handler задачи запаниковал.
	ErrTaskPanic = errors.New("task handler panicked")

	// ErrTaskTimeout — задача превысила таймаут шага.
	ErrTaskTimeout = errors.New("task timeout")

	// ErrNilHandler — шагу не назначен handler.
	ErrNilHandler = errors.New("nil handler")
)

// TaskHandlerError — отказ одной задачи.
//
// Записывается в задачу и никогда не выходит за её пределы:
// соседние задачи, пул и executor продолжают работу.
type TaskHandlerError struct {
	Step  string
	Index int
	Err   error
	Panic bool
}

// Error реализует интерфейс error.
func (e *TaskHandlerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("task %s[%d]: panic: %v", e.Step, e.Index, e.Err)
	}
	return fmt.Sprintf("task %s[%d]: %v", e.Step, e.Index, e.Err)
}

// Unwrap возвращает ошибку handler'а.
func (e *TaskHandlerError) Unwrap() error {
	return e.Err
}
