// Package engine содержит структурную часть pipeline.
//
// Включает:
//   - dag.go      — ациклический граф шагов с проверкой циклов при вставке
//   - parser.go   — парсинг JobSpec из JSON/YAML и его валидация
//   - template.go — рендеринг Go templates ({{ .Step }}, {{ .Index }})
//
// Engine не выполняет шаги: он отвечает за структуру job и
// за то, чтобы планировщик получил корректный граф.
package engine
