// Package telemetry обеспечивает наблюдаемость Evalflow.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики, обновляемые событиями планировщика
//
// CLI и API используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
