// Package api содержит HTTP API evalflow-api.
//
// Структура:
//   - handler.go     — Handler и его зависимости
//   - routes.go      — регистрация маршрутов
//   - middleware.go  — request id, recovery, logging
//   - response.go    — JSON-ответы и отображение ошибок в HTTP статусы
//   - dto.go         — ответы API
//   - job_handler.go — обработчики /api/v1/jobs
//   - store.go       — JobStore: в памяти (из событий) или PostgreSQL
//   - launcher.go    — фоновый запуск job, принятых через POST
package api
