package steps

import (
	"context"
	"errors"

	"github.com/shaiso/Evalflow/internal/domain"
)

// Ошибки handler'ов.
var (
	// ErrHandlerNotFound — handler не найден в реестре.
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrInvalidParams — невалидные параметры handler'а.
	ErrInvalidParams = errors.New("invalid handler params")

	// ErrCancelled — выполнение задачи отменено.
	ErrCancelled = errors.New("task execution cancelled")

	// ErrForcedFailure — ошибка handler'а fail.
	ErrForcedFailure = errors.New("forced failure")
)

// Handler — пользовательская логика задачи.
//
// Run вызывается один раз на задачу, конкурентно для разных задач шага.
// Handler получает контекст задачи по значению и должен проверять
// ctx.Done() для отмены и таймаута.
type Handler interface {
	// Name возвращает идентификатор handler'а.
	Name() string

	// Run выполняет задачу. Ошибка или паника делают задачу FAILED.
	Run(ctx context.Context, tc domain.TaskContext) error
}

// HandlerFunc — адаптер функции к Handler.
type HandlerFunc func(ctx context.Context, tc domain.TaskContext) error

// Name возвращает пустую строку: имя задаётся при регистрации.
func (f HandlerFunc) Name() string { return "" }

// Run вызывает f(ctx, tc).
func (f HandlerFunc) Run(ctx context.Context, tc domain.TaskContext) error {
	return f(ctx, tc)
}

// ParamString извлекает строковое значение из параметров.
func ParamString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParamInt извлекает числовое значение из параметров.
// JSON даёт float64, YAML — int.
func ParamInt(params map[string]any, key string) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// ParamBool извлекает булево значение из параметров.
func ParamBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// ParamStrings извлекает список строк из параметров.
func ParamStrings(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

// ParamStringMap извлекает map[string]string из параметров.
func ParamStringMap(params map[string]any, key string) map[string]string {
	switch m := params[key].(type) {
	case map[string]string:
		return m
	case map[string]any:
		result := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				result[k] = s
			}
		}
		return result
	}
	return nil
}
