package domain

// StepStatus — статус выполнения шага pipeline.
//
// Жизненный цикл:
//
//	INIT → RUNNING → SUCCESS
//	               ↘ FAILED
//	(или) INIT → BLOCKED (зависимость упала или запуск остановлен)
//
// Переходы монотонны: из терминального статуса выхода нет.
type StepStatus string

const (
	// StepStatusInit — шаг создан и ждёт своих зависимостей.
	StepStatusInit StepStatus = "INIT"

	// StepStatusRunning — задачи шага выполняются executor'ом.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSuccess — все задачи шага завершились успешно.
	StepStatusSuccess StepStatus = "SUCCESS"

	// StepStatusFailed — хотя бы одна задача шага упала.
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusBlocked — шаг так и не был запущен: одна из транзитивных
	// зависимостей упала, либо запуск был остановлен (fail-fast, отмена).
	StepStatusBlocked StepStatus = "BLOCKED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSuccess, StepStatusFailed, StepStatusBlocked:
		return true
	default:
		return false
	}
}

// CanTransition проверяет допустимость перехода from → to.
func (s StepStatus) CanTransition(to StepStatus) bool {
	switch s {
	case StepStatusInit:
		return to == StepStatusRunning || to == StepStatusBlocked
	case StepStatusRunning:
		return to == StepStatusSuccess || to == StepStatusFailed
	default:
		return false
	}
}

// TaskStatus — статус выполнения task.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//
// Retry на этом уровне нет: упавшая задача остаётся FAILED.
type TaskStatus string

const (
	// TaskStatusPending — task создан вместе с шагом и ждёт воркера.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusRunning — handler выполняется.
	TaskStatusRunning TaskStatus = "RUNNING"

	// TaskStatusSucceeded — handler вернул nil.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusFailed — handler вернул ошибку или запаниковал.
	TaskStatusFailed TaskStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// JobStatus — итоговый статус job.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ PARTIAL (часть шагов упала или заблокирована)
//	                  ↘ FAILED  (ни один шаг не завершился успешно)
type JobStatus string

const (
	// JobStatusPending — job создан, планировщик ещё не запущен.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning — планировщик выполняет шаги.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — все шаги в SUCCESS.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusPartial — завершён с частичным отказом.
	JobStatusPartial JobStatus = "PARTIAL"

	// JobStatusFailed — ни одного успешного шага.
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// ParseJobStatus парсит строку в JobStatus.
func ParseJobStatus(s string) JobStatus {
	switch s {
	case "RUNNING":
		return JobStatusRunning
	case "SUCCEEDED":
		return JobStatusSucceeded
	case "PARTIAL":
		return JobStatusPartial
	case "FAILED":
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}
