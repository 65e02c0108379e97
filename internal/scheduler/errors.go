package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrInvalidJobSpec — JobSpec не прошёл валидацию.
	ErrInvalidJobSpec = errors.New("invalid job spec")

	// ErrAlreadyRunning — Run уже выполняется для этого JobState.
	ErrAlreadyRunning = errors.New("job is already running")

	// ErrStepNotFound — шага нет в job.
	ErrStepNotFound = errors.New("step not found")

	// ErrCancelled — запуск остановлен отменой контекста.
	ErrCancelled = errors.New("job cancelled")
)
