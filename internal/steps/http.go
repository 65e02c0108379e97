package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Evalflow/internal/domain"
)

const (
	// HandlerHTTP — handler удалённого выполнения задачи.
	HandlerHTTP = "http"

	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4 * 1024
)

// Ключи параметров HTTP handler'а.
const (
	paramMethod     = "method"
	paramURL        = "url"
	paramHeaders    = "headers"
	paramTimeoutSec = "timeout_sec"
)

// HTTPHandler — отправляет контекст задачи во внешний сервис.
//
// Тело запроса — TaskContext в JSON. Задача успешна при статусе < 400.
//
// Параметры:
//
//	{
//	    "url": "http://inference:8080/predict",
//	    "method": "POST",
//	    "headers": {"Authorization": "Bearer xxx"},
//	    "timeout_sec": 30
//	}
type HTTPHandler struct {
	client *http.Client
}

// NewHTTPHandler создаёт новый HTTPHandler.
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{
		client: &http.Client{},
	}
}

// Name возвращает идентификатор handler'а.
func (h *HTTPHandler) Name() string {
	return HandlerHTTP
}

// Run выполняет HTTP запрос.
func (h *HTTPHandler) Run(ctx context.Context, tc domain.TaskContext) error {
	url := ParamString(tc.Params, paramURL)
	if url == "" {
		return fmt.Errorf("%w: %s: url is required", ErrInvalidParams, HandlerHTTP)
	}

	method := strings.ToUpper(ParamString(tc.Params, paramMethod))
	if method == "" {
		method = http.MethodPost
	}

	timeout := defaultHTTPTimeout
	if sec := ParamInt(tc.Params, paramTimeoutSec); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(tc)
	if err != nil {
		return fmt.Errorf("serialize task context: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range ParamStringMap(tc.Params, paramHeaders) {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// HTTPError — ответ удалённого сервиса со статусом >= 400.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}
