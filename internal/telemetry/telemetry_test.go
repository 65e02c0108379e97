package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Evalflow/internal/domain"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"":      slog.LevelInfo,
		"trace": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	WithStep(WithJobID(logger, "job-1"), "predict").Info("step started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if entry["job_id"] != "job-1" || entry["step"] != "predict" {
		t.Errorf("unexpected attributes: %v", entry)
	}

	buf.Reset()
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Error("debug must be filtered at INFO level")
	}
}

func TestFromContext(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "text")

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

func TestMetrics_Report(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	ctx := context.Background()
	jobID := uuid.New()

	start := time.Now()
	finish := start.Add(2 * time.Second)

	events := []domain.Event{
		{Kind: domain.EventJobStarted, JobID: jobID, Job: "eval"},
		{Kind: domain.EventStepStarted, JobID: jobID, Job: "eval", Step: "predict"},
		{Kind: domain.EventTaskFinished, JobID: jobID, Job: "eval", Step: "predict", Status: "SUCCEEDED", StartedAt: &start, FinishedAt: &finish},
		{Kind: domain.EventTaskFinished, JobID: jobID, Job: "eval", Step: "predict", Status: "FAILED", StartedAt: &start, FinishedAt: &finish},
		{Kind: domain.EventStepFinished, JobID: jobID, Job: "eval", Step: "predict", Status: "FAILED", StartedAt: &start, FinishedAt: &finish},
		{Kind: domain.EventStepFinished, JobID: jobID, Job: "eval", Step: "evaluate", Status: "BLOCKED"},
	}
	for _, ev := range events {
		if err := m.Report(ctx, ev); err != nil {
			t.Fatalf("report: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.JobsRunning); got != 1 {
		t.Errorf("jobs running: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.StepsRunning); got != 0 {
		t.Errorf("steps running: expected 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.TasksTotal.WithLabelValues("eval", "predict", "FAILED")); got != 1 {
		t.Errorf("failed tasks: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.StepsTotal.WithLabelValues("eval", "evaluate", "BLOCKED")); got != 1 {
		t.Errorf("blocked steps: expected 1, got %v", got)
	}
	if got := testutil.CollectAndCount(m.TaskDuration); got != 1 {
		t.Errorf("task duration series: expected 1, got %d", got)
	}

	if err := m.Report(ctx, domain.Event{Kind: domain.EventJobFinished, Job: "eval", Status: "PARTIAL"}); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.JobsTotal.WithLabelValues("eval", "PARTIAL")); got != 1 {
		t.Errorf("jobs total: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.JobsRunning); got != 0 {
		t.Errorf("jobs running: expected 0, got %v", got)
	}
}
