package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Evalflow/internal/domain"
)

// handlerSet — тестовый набор handler'ов.
type handlerSet map[string]bool

func (h handlerSet) Has(name string) bool { return h[name] }

var knownHandlers = handlerSet{"noop": true, "delay": true}

func TestValidateJob_EmptySteps(t *testing.T) {
	tests := []struct {
		name string
		spec *domain.JobSpec
	}{
		{name: "nil spec", spec: nil},
		{name: "empty steps", spec: &domain.JobSpec{Steps: []domain.StepSpec{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateJob(tt.spec, knownHandlers); !errors.Is(err, ErrEmptySteps) {
				t.Errorf("expected ErrEmptySteps, got %v", err)
			}
		})
	}
}

func TestValidateJob_Errors(t *testing.T) {
	tests := []struct {
		name  string
		steps []domain.StepSpec
		want  error
		step  string
	}{
		{
			name:  "empty name",
			steps: []domain.StepSpec{{Name: "", Handler: "noop"}},
			want:  ErrEmptyStepName,
		},
		{
			name: "duplicate name",
			steps: []domain.StepSpec{
				{Name: "predict", Handler: "noop"},
				{Name: "predict", Handler: "noop"},
			},
			want: ErrDuplicateStepName,
			step: "predict",
		},
		{
			name:  "unknown handler",
			steps: []domain.StepSpec{{Name: "predict", Handler: "torch"}},
			want:  ErrUnknownHandler,
			step:  "predict",
		},
		{
			name:  "empty handler",
			steps: []domain.StepSpec{{Name: "predict"}},
			want:  ErrUnknownHandler,
			step:  "predict",
		},
		{
			name:  "negative task_num",
			steps: []domain.StepSpec{{Name: "predict", Handler: "noop", TaskNum: -1}},
			want:  ErrInvalidTaskNum,
			step:  "predict",
		},
		{
			name:  "self dependency",
			steps: []domain.StepSpec{{Name: "predict", Handler: "noop", Needs: []string{"predict"}}},
			want:  ErrSelfDependency,
			step:  "predict",
		},
		{
			name: "missing dependency",
			steps: []domain.StepSpec{
				{Name: "evaluate", Handler: "noop", Needs: []string{"predict"}},
			},
			want: ErrMissingDependency,
			step: "evaluate",
		},
		{
			name: "cycle",
			steps: []domain.StepSpec{
				{Name: "a", Handler: "noop", Needs: []string{"c"}},
				{Name: "b", Handler: "noop", Needs: []string{"a"}},
				{Name: "c", Handler: "noop", Needs: []string{"b"}},
			},
			want: ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJob(&domain.JobSpec{Name: "eval", Steps: tt.steps}, knownHandlers)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if tt.step != "" && vErr.Step != tt.step {
				t.Errorf("expected step %q, got %q", tt.step, vErr.Step)
			}
		})
	}
}

func TestValidateJob_Valid(t *testing.T) {
	spec := &domain.JobSpec{
		Name: "eval",
		Steps: []domain.StepSpec{
			{Name: "predict", Handler: "noop", TaskNum: 4},
			{Name: "evaluate", Handler: "delay", Needs: []string{"", "predict"}},
		},
	}

	if err := ValidateJob(spec, knownHandlers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// nil handlers — проверка handler'ов пропускается
	spec.Steps[0].Handler = "anything"
	if err := ValidateJob(spec, nil); err != nil {
		t.Fatalf("unexpected error without handler set: %v", err)
	}
}

func TestBuildGraph(t *testing.T) {
	spec := &domain.JobSpec{
		Name: "eval",
		Steps: []domain.StepSpec{
			{Name: "prepare", Handler: "noop"},
			{Name: "predict", Handler: "noop", Needs: []string{"prepare"}},
			{Name: "baseline", Handler: "noop", Needs: []string{"prepare"}},
			{Name: "evaluate", Handler: "noop", Needs: []string{"predict", "baseline", ""}},
		},
	}

	dag, err := BuildGraph(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dag.VertexSize() != 4 || dag.EdgeSize() != 4 {
		t.Errorf("expected 4 vertices and 4 edges, got %d and %d", dag.VertexSize(), dag.EdgeSize())
	}
	if !dag.HasEdge("predict", "evaluate") || !dag.HasEdge("baseline", "evaluate") {
		t.Error("evaluate should depend on predict and baseline")
	}
	if starts := dag.AllStarts(); len(starts) != 1 || starts[0] != "prepare" {
		t.Errorf("expected [prepare], got %v", starts)
	}
}

const yamlSpec = `
name: mnist-eval
version: v3
workdir: /tmp/{{ .Job }}/{{ .Step }}/{{ .Index }}
model_name: mnist
dataset_uris:
  - s3://datasets/mnist/test
dataset_head: 1000
steps:
  - name: predict
    handler: noop
    task_num: 4
    concurrency: 2
  - name: evaluate
    handler: delay
    needs: [predict]
    params:
      duration_ms: 10
`

const jsonSpec = `{
  "name": "mnist-eval",
  "fail_fast": true,
  "steps": [
    {"name": "predict", "handler": "noop", "task_num": 2, "timeout_sec": 30},
    {"name": "evaluate", "handler": "noop", "needs": ["predict"]}
  ]
}`

func TestParseJobSpec_YAML(t *testing.T) {
	spec, err := ParseJobSpec([]byte(yamlSpec), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spec.Name != "mnist-eval" || spec.Version != "v3" || spec.ModelName != "mnist" {
		t.Errorf("unexpected metadata: %+v", spec)
	}
	if spec.DatasetHead != 1000 || len(spec.DatasetURIs) != 1 {
		t.Errorf("unexpected dataset fields: %+v", spec)
	}
	if len(spec.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(spec.Steps))
	}
	if spec.Steps[0].TaskNum != 4 || spec.Steps[0].Concurrency != 2 {
		t.Errorf("unexpected predict step: %+v", spec.Steps[0])
	}
	if spec.Steps[1].Needs[0] != "predict" {
		t.Errorf("unexpected needs: %v", spec.Steps[1].Needs)
	}
	if spec.Steps[1].Params["duration_ms"] != 10 {
		t.Errorf("unexpected params: %v", spec.Steps[1].Params)
	}
	if err := ValidateJob(spec, knownHandlers); err != nil {
		t.Errorf("parsed spec should be valid: %v", err)
	}
}

func TestParseJobSpec_JSON(t *testing.T) {
	spec, err := ParseJobSpec([]byte(jsonSpec), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !spec.FailFast {
		t.Error("expected fail_fast")
	}
	if spec.Steps[0].TimeoutSec != 30 {
		t.Errorf("expected timeout 30, got %d", spec.Steps[0].TimeoutSec)
	}
}

func TestParseJobSpec_UnknownField(t *testing.T) {
	_, err := ParseJobSpec([]byte(`{"name": "x", "stepz": []}`), FormatJSON)
	if err == nil {
		t.Error("expected error for unknown json field")
	}

	_, err = ParseJobSpec([]byte("name: x\nstepz: []\n"), FormatYAML)
	if err == nil {
		t.Error("expected error for unknown yaml field")
	}
}

func TestParseJobSpec_UnsupportedFormat(t *testing.T) {
	_, err := ParseJobSpec([]byte("name = x"), Format("toml"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadJobSpec(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(yamlPath, []byte(yamlSpec), 0o644); err != nil {
		t.Fatal(err)
	}
	spec, err := LoadJobSpec(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if spec.Name != "mnist-eval" {
		t.Errorf("unexpected name: %s", spec.Name)
	}

	txtPath := filepath.Join(dir, "pipeline.txt")
	if err := os.WriteFile(txtPath, []byte(yamlSpec), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJobSpec(txtPath); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	if _, err := LoadJobSpec(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
