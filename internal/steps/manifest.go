package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shaiso/Evalflow/internal/domain"
)

const (
	// HandlerManifest — handler записи манифеста партиции.
	HandlerManifest = "manifest"

	paramPath   = "path"
	paramFields = "fields"
)

// Manifest — содержимое файла, который пишет ManifestHandler.
type Manifest struct {
	JobID    string         `json:"job_id"`
	Step     string         `json:"step"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Version  string         `json:"version,omitempty"`
	Model    string         `json:"model,omitempty"`
	Datasets []string       `json:"datasets,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// ManifestHandler пишет JSON-манифест партиции в Workdir задачи.
//
// Параметры шаблонизируются планировщиком до вызова, поэтому значения
// fields могут ссылаться на {{ .Index }}, {{ .Total }} и т.д. Строки,
// похожие на JSON (числа, bool, объекты, массивы), записываются
// типизированными значениями.
//
// Параметры:
//
//	{
//	    "path": "manifest-{{ pad 3 .Index }}.json",  // по умолчанию manifest-<index>.json
//	    "fields": {
//	        "shard": "{{ .Index }}",
//	        "output": "s3://bucket/{{ .Job }}/{{ .Index }}.parquet"
//	    }
//	}
type ManifestHandler struct{}

// NewManifestHandler создаёт новый ManifestHandler.
func NewManifestHandler() *ManifestHandler {
	return &ManifestHandler{}
}

// Name возвращает идентификатор handler'а.
func (h *ManifestHandler) Name() string {
	return HandlerManifest
}

// Run записывает манифест.
func (h *ManifestHandler) Run(ctx context.Context, tc domain.TaskContext) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	if tc.Workdir == "" {
		return fmt.Errorf("%w: %s: workdir is required", ErrInvalidParams, HandlerManifest)
	}

	name := ParamString(tc.Params, paramPath)
	if name == "" {
		name = "manifest-" + strconv.Itoa(tc.Index) + ".json"
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s: path %q must be relative to workdir", ErrInvalidParams, HandlerManifest, name)
	}

	manifest := Manifest{
		JobID:    tc.JobID.String(),
		Step:     tc.Step,
		Index:    tc.Index,
		Total:    tc.Total,
		Version:  tc.Version,
		Model:    tc.ModelName,
		Datasets: tc.DatasetURIs,
		Fields:   typedFields(tc.Params[paramFields]),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	path := filepath.Join(tc.Workdir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// typedFields приводит строковые значения к JSON-типам.
func typedFields(raw any) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}

	fields := make(map[string]any, len(m))
	for key, val := range m {
		if s, ok := val.(string); ok {
			fields[key] = parseValue(s)
			continue
		}
		fields[key] = val
	}
	return fields
}

// parseValue разбирает строку как JSON; если не получилось, возвращает её как есть.
func parseValue(value string) any {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	if _, isString := v.(string); isString {
		return value
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}
