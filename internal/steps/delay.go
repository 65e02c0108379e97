package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Evalflow/internal/domain"
)

const (
	// HandlerDelay — handler задержки.
	HandlerDelay = "delay"

	// Ключи параметров delay.
	paramDurationSec = "duration_sec"
	paramDurationMs  = "duration_ms"
)

// DelayHandler — handler задержки.
//
// Приостанавливает задачу на указанное время.
// Поддерживает отмену и таймаут через context.
//
// Параметры:
//
//	{
//	    "duration_sec": 10,    // задержка в секундах
//	    // или
//	    "duration_ms": 5000    // задержка в миллисекундах
//	}
type DelayHandler struct{}

// NewDelayHandler создаёт новый DelayHandler.
func NewDelayHandler() *DelayHandler {
	return &DelayHandler{}
}

// Name возвращает идентификатор handler'а.
func (h *DelayHandler) Name() string {
	return HandlerDelay
}

// Run выполняет задержку.
func (h *DelayHandler) Run(ctx context.Context, tc domain.TaskContext) error {
	duration, err := parseDuration(tc.Params)
	if err != nil {
		return err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// parseDuration извлекает длительность из параметров.
func parseDuration(params map[string]any) (time.Duration, error) {
	if sec := ParamInt(params, paramDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}

	if ms := ParamInt(params, paramDurationMs); ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("%w: %s: duration_sec or duration_ms required",
		ErrInvalidParams, HandlerDelay)
}
