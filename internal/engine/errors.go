package engine

import (
	"errors"
	"fmt"
)

// Ошибки мутации графа.
var (
	// ErrUnknownVertex — ребро ссылается на вершину, которой нет в графе.
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrCycle — ребро замкнуло бы цикл.
	ErrCycle = errors.New("cycle")

	// ErrEdgeNotFound — удаляемого ребра нет в графе.
	ErrEdgeNotFound = errors.New("edge not found")
)

// Ошибки валидации JobSpec.
var (
	// ErrEmptySteps — pipeline не содержит шагов.
	ErrEmptySteps = errors.New("job spec has no steps")

	// ErrEmptyStepName — шаг не имеет имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStepName — несколько шагов с одинаковым именем.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrUnknownHandler — handler шага не зарегистрирован.
	ErrUnknownHandler = errors.New("unknown handler")

	// ErrMissingDependency — шаг зависит от несуществующего шага.
	ErrMissingDependency = errors.New("step depends on unknown step")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrSelfDependency — шаг зависит от самого себя.
	ErrSelfDependency = errors.New("step depends on itself")

	// ErrInvalidTaskNum — отрицательное количество задач или воркеров.
	ErrInvalidTaskNum = errors.New("invalid task number")

	// ErrUnsupportedFormat — неизвестный формат файла pipeline.
	ErrUnsupportedFormat = errors.New("unsupported spec format")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// GraphErrorKind — вид ошибки мутации графа.
type GraphErrorKind int

const (
	// UnknownVertex — одна из вершин ребра отсутствует.
	UnknownVertex GraphErrorKind = iota + 1

	// Cycle — ребро создало бы цикл.
	Cycle

	// EdgeNotFound — ребра нет.
	EdgeNotFound
)

// String возвращает имя вида ошибки.
func (k GraphErrorKind) String() string {
	switch k {
	case UnknownVertex:
		return "UnknownVertex"
	case Cycle:
		return "Cycle"
	case EdgeNotFound:
		return "EdgeNotFound"
	default:
		return "Unknown"
	}
}

// GraphError — отклонённая мутация графа. Граф при этом не изменён.
type GraphError struct {
	Kind GraphErrorKind
	From string
	To   string
}

// Error реализует интерфейс error.
func (e *GraphError) Error() string {
	return fmt.Sprintf("graph: %s: %s -> %s", e.Unwrap(), e.From, e.To)
}

// Unwrap возвращает sentinel-ошибку вида, чтобы работал errors.Is.
func (e *GraphError) Unwrap() error {
	switch e.Kind {
	case UnknownVertex:
		return ErrUnknownVertex
	case Cycle:
		return ErrCycle
	case EdgeNotFound:
		return ErrEdgeNotFound
	default:
		return nil
	}
}

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Step    string // имя шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(step, field, message string, err error) *ValidationError {
	return &ValidationError{
		Step:    step,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
