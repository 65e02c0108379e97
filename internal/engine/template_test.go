package engine

import (
	"errors"
	"testing"
)

func TestRenderWorkdir(t *testing.T) {
	data := TaskData{Job: "mnist-eval", Step: "predict", Index: 3, Total: 8, Version: "v2"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{name: "plain", tmpl: "/data/out", want: "/data/out"},
		{name: "fields", tmpl: "/data/{{ .Job }}/{{ .Step }}/{{ .Index }}-of-{{ .Total }}", want: "/data/mnist-eval/predict/3-of-8"},
		{name: "pad", tmpl: "part-{{ pad 5 .Index }}", want: "part-00003"},
		{name: "default", tmpl: `{{ default "latest" .Model }}/{{ .Version }}`, want: "latest/v2"},
		{name: "upper", tmpl: "{{ upper .Step }}", want: "PREDICT"},
		{name: "empty", tmpl: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderWorkdir(tt.tmpl, data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{ .Step ", TaskData{})
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}

	_, err = Render("{{ .Unknown }}", TaskData{})
	if !errors.Is(err, ErrTemplateRender) {
		t.Errorf("expected ErrTemplateRender, got %v", err)
	}
}

func TestRenderParams(t *testing.T) {
	params := map[string]any{
		"output": "/out/{{ .Step }}/{{ .Index }}.json",
		"batch":  32,
		"files":  []any{"{{ .Job }}.csv", 7},
		"nested": map[string]any{"tag": "{{ .Version }}"},
		"names":  []string{"{{ .Total }}"},
	}
	data := TaskData{Job: "eval", Step: "predict", Index: 1, Total: 2, Version: "v1"}

	got, err := RenderParams(params, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["output"] != "/out/predict/1.json" {
		t.Errorf("output: got %v", got["output"])
	}
	if got["batch"] != 32 {
		t.Errorf("batch: got %v", got["batch"])
	}
	if files := got["files"].([]any); files[0] != "eval.csv" || files[1] != 7 {
		t.Errorf("files: got %v", files)
	}
	if nested := got["nested"].(map[string]any); nested["tag"] != "v1" {
		t.Errorf("nested: got %v", nested)
	}
	if names := got["names"].([]string); names[0] != "2" {
		t.Errorf("names: got %v", names)
	}
	if params["output"] != "/out/{{ .Step }}/{{ .Index }}.json" {
		t.Error("source params must not change")
	}

	empty, err := RenderParams(nil, data)
	if err != nil || empty != nil {
		t.Errorf("nil params: got %v, %v", empty, err)
	}
}
