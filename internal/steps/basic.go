package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/Evalflow/internal/domain"
)

const (
	// HandlerNoop — handler, который ничего не делает.
	HandlerNoop = "noop"

	// HandlerFail — handler, который всегда падает.
	HandlerFail = "fail"
)

// NoopHandler — успешно завершается сразу.
// Используется для шагов-заглушек и структурных вершин (init, end).
type NoopHandler struct{}

// NewNoopHandler создаёт новый NoopHandler.
func NewNoopHandler() *NoopHandler {
	return &NoopHandler{}
}

// Name возвращает идентификатор handler'а.
func (h *NoopHandler) Name() string {
	return HandlerNoop
}

// Run возвращает ошибку только при отменённом контексте.
func (h *NoopHandler) Run(ctx context.Context, _ domain.TaskContext) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

// FailHandler — всегда возвращает ошибку.
//
// Параметры:
//
//	{
//	    "message": "model not found",  // текст ошибки
//	    "index": 2                     // падать только на этой партиции (-1 — на всех)
//	}
type FailHandler struct{}

// NewFailHandler создаёт новый FailHandler.
func NewFailHandler() *FailHandler {
	return &FailHandler{}
}

// Name возвращает идентификатор handler'а.
func (h *FailHandler) Name() string {
	return HandlerFail
}

// Run падает с ErrForcedFailure.
func (h *FailHandler) Run(_ context.Context, tc domain.TaskContext) error {
	if _, ok := tc.Params["index"]; ok {
		if idx := ParamInt(tc.Params, "index"); idx >= 0 && idx != tc.Index {
			return nil
		}
	}

	msg := ParamString(tc.Params, "message")
	if msg == "" {
		msg = fmt.Sprintf("%s[%d]", tc.Step, tc.Index)
	}
	return fmt.Errorf("%w: %s", ErrForcedFailure, msg)
}
