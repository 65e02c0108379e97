package api

import (
	"log/slog"
)

// Handler — обработчик API с зависимостями.
type Handler struct {
	store    JobStore
	launcher *Launcher
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Store — история запусков.
	Store JobStore

	// Launcher — запуск job через POST /api/v1/jobs (опционально;
	// без него API только читает историю).
	Launcher *Launcher

	// Logger
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    cfg.Store,
		launcher: cfg.Launcher,
		logger:   logger,
	}
}
