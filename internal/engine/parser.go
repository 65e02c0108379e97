package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Evalflow/internal/domain"
)

// Format — формат файла с декларацией pipeline.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath определяет формат по расширению файла.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// HandlerSet — набор известных идентификаторов handler'ов.
// Реализуется steps.Registry.
type HandlerSet interface {
	Has(name string) bool
}

// ParseJobSpec декодирует JobSpec из data.
// Неизвестные поля считаются ошибкой, чтобы опечатки в needs/task_num не терялись.
func ParseJobSpec(data []byte, format Format) (*domain.JobSpec, error) {
	var spec domain.JobSpec

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return &spec, nil
}

// LoadJobSpec читает JobSpec из файла. Формат выбирается по расширению.
func LoadJobSpec(path string) (*domain.JobSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job spec: %w", err)
	}

	spec, err := ParseJobSpec(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ValidateJob выполняет полную валидацию JobSpec.
//
// Проверяет:
// - Наличие шагов
// - Непустые и уникальные имена
// - Неотрицательные task_num/concurrency/timeout_sec
// - Известные handler'ы (если handlers != nil)
// - Валидность зависимостей (needs)
// - Отсутствие циклов (делегируется DAG)
func ValidateJob(spec *domain.JobSpec, handlers HandlerSet) error {
	if spec == nil || len(spec.Steps) == 0 {
		return ErrEmptySteps
	}

	names := make(map[string]bool, len(spec.Steps))

	for i := range spec.Steps {
		if err := validateStep(&spec.Steps[i], names, handlers); err != nil {
			return err
		}
	}

	for i := range spec.Steps {
		step := &spec.Steps[i]
		for _, dep := range step.Dependencies() {
			if !names[dep] {
				return NewValidationError(step.Name, "needs",
					fmt.Sprintf("depends on unknown step: %s", dep), ErrMissingDependency)
			}
		}
	}

	if _, err := BuildGraph(spec); err != nil {
		return err
	}

	return nil
}

func validateStep(step *domain.StepSpec, names map[string]bool, handlers HandlerSet) error {
	if step.Name == "" {
		return NewValidationError("", "name", "step has empty name", ErrEmptyStepName)
	}

	if names[step.Name] {
		return NewValidationError(step.Name, "name",
			fmt.Sprintf("duplicate step name: %s", step.Name), ErrDuplicateStepName)
	}
	names[step.Name] = true

	if step.TaskNum < 0 || step.Concurrency < 0 || step.TimeoutSec < 0 {
		return NewValidationError(step.Name, "task_num",
			"task_num, concurrency and timeout_sec must be non-negative", ErrInvalidTaskNum)
	}

	if step.Handler == "" {
		return NewValidationError(step.Name, "handler", "step has empty handler", ErrUnknownHandler)
	}
	if handlers != nil && !handlers.Has(step.Handler) {
		return NewValidationError(step.Name, "handler",
			fmt.Sprintf("unknown handler: %s", step.Handler), ErrUnknownHandler)
	}

	for _, dep := range step.Dependencies() {
		if dep == step.Name {
			return NewValidationError(step.Name, "needs", "step depends on itself", ErrSelfDependency)
		}
	}

	return nil
}

// BuildGraph строит DAG из шагов JobSpec: вершина на шаг, ребро need → step
// на каждую зависимость.
func BuildGraph(spec *domain.JobSpec) (*DAG, error) {
	if spec == nil || len(spec.Steps) == 0 {
		return nil, ErrEmptySteps
	}

	dag := NewDAG()
	for i := range spec.Steps {
		dag.AddVertex(spec.Steps[i].Name)
	}

	for i := range spec.Steps {
		step := &spec.Steps[i]
		for _, dep := range step.Dependencies() {
			err := dag.AddEdge(dep, step.Name)
			switch {
			case err == nil:
			case errors.Is(err, ErrCycle):
				return nil, NewValidationError(step.Name, "needs",
					fmt.Sprintf("cycle through %s -> %s", dep, step.Name), ErrCyclicDependency)
			case errors.Is(err, ErrUnknownVertex):
				return nil, NewValidationError(step.Name, "needs",
					fmt.Sprintf("depends on unknown step: %s", dep), ErrMissingDependency)
			default:
				return nil, err
			}
		}
	}

	return dag, nil
}
