package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/repo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*httptest.Server, *MemoryStore, *Launcher) {
	t.Helper()

	store := NewMemoryStore()
	launcher := NewLauncher(LauncherConfig{
		Reporter: store,
		OnSubmit: store.Put,
		Logger:   testLogger(),
	})
	h := NewHandler(Config{Store: store, Launcher: launcher, Logger: testLogger()})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		launcher.Shutdown(ctx)
	})
	return srv, store, launcher
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var body struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func waitForJob(t *testing.T, store *MemoryStore, id uuid.UUID) domain.Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), id)
		if err == nil && job.IsFinished() {
			return *job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return domain.Job{}
}

func waitForStep(t *testing.T, store *MemoryStore, id uuid.UUID, name string, status domain.StepStatus) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		steps, _ := store.ListSteps(context.Background(), id)
		for _, s := range steps {
			if s.Name == name && s.Status == status {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("step %s did not reach %s", name, status)
}

const pipelineJSON = `{
	"name": "mnist-eval",
	"version": "v1",
	"steps": [
		{"name": "predict", "handler": "noop", "task_num": 4, "concurrency": 2},
		{"name": "evaluate", "handler": "noop", "needs": ["predict"]}
	]
}`

func TestSubmitJob_RunsToCompletion(t *testing.T) {
	srv, store, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(pipelineJSON))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("expected request id header")
	}
	submitted := decodeData[JobResponse](t, resp)
	if submitted.Status != domain.JobStatusPending || submitted.Name != "mnist-eval" {
		t.Errorf("unexpected submitted job: %+v", submitted)
	}

	job := waitForJob(t, store, submitted.ID)
	if job.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected SUCCEEDED, got %s (%s)", job.Status, job.Error)
	}
	if job.Version != "v1" {
		t.Errorf("expected version v1, got %q", job.Version)
	}

	resp, err = http.Get(srv.URL + "/api/v1/jobs/" + submitted.ID.String() + "/steps")
	if err != nil {
		t.Fatal(err)
	}
	steps := decodeData[[]StepResponse](t, resp)
	if len(steps) != 2 || steps[0].Name != "predict" || steps[0].Succeeded != 4 {
		t.Errorf("unexpected steps: %+v", steps)
	}

	resp, err = http.Get(srv.URL + "/api/v1/jobs/" + submitted.ID.String() + "/tasks?step=predict")
	if err != nil {
		t.Fatal(err)
	}
	tasks := decodeData[[]TaskResponse](t, resp)
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		if task.Index != i || task.Status != domain.TaskStatusSucceeded {
			t.Errorf("task %d: unexpected %+v", i, task)
		}
	}

	resp, err = http.Get(srv.URL + "/api/v1/jobs?status=succeeded")
	if err != nil {
		t.Fatal(err)
	}
	jobs := decodeData[[]JobResponse](t, resp)
	if len(jobs) != 1 || jobs[0].ID != submitted.ID {
		t.Errorf("unexpected job list: %+v", jobs)
	}
}

func TestSubmitJob_YAML(t *testing.T) {
	srv, store, _ := newTestServer(t)

	spec := "name: yaml-eval\nsteps:\n  - name: only\n    handler: fail\n"
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/yaml", strings.NewReader(spec))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	job := waitForJob(t, store, decodeData[JobResponse](t, resp).ID)
	if job.Status != domain.JobStatusFailed || job.Error != "failed: only" {
		t.Errorf("expected FAILED with message, got %s %q", job.Status, job.Error)
	}
}

func TestSubmitJob_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   ErrorCode
	}{
		{name: "malformed", body: "{", status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "unknown field", body: `{"name":"x","stepz":[]}`, status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "no steps", body: `{"name":"x","steps":[]}`, status: http.StatusUnprocessableEntity, code: ErrCodeInvalidSpec},
		{
			name:   "cycle",
			body:   `{"name":"x","steps":[{"name":"a","handler":"noop","needs":["b"]},{"name":"b","handler":"noop","needs":["a"]}]}`,
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeInvalidSpec,
		},
		{
			name:   "unknown handler",
			body:   `{"name":"x","steps":[{"name":"a","handler":"torch"}]}`,
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeInvalidSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var body ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, body.Error.Code)
			}
		})
	}
}

func TestCancelJob(t *testing.T) {
	srv, store, launcher := newTestServer(t)

	spec := `{"name":"slow","steps":[
		{"name":"wait","handler":"delay","params":{"duration_sec":30}},
		{"name":"after","handler":"noop","needs":["wait"]}
	]}`
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", strings.NewReader(spec))
	if err != nil {
		t.Fatal(err)
	}
	id := decodeData[JobResponse](t, resp).ID
	waitForStep(t, store, id, "wait", domain.StepStatusRunning)

	resp, err = http.Post(srv.URL+"/api/v1/jobs/"+id.String()+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	job := waitForJob(t, store, id)
	if job.Status != domain.JobStatusFailed {
		t.Errorf("expected FAILED after cancel, got %s", job.Status)
	}

	steps, _ := store.ListSteps(context.Background(), id)
	statuses := map[string]domain.StepStatus{}
	for _, s := range steps {
		statuses[s.Name] = s.Status
	}
	if statuses["wait"] != domain.StepStatusFailed || statuses["after"] != domain.StepStatusBlocked {
		t.Errorf("unexpected step statuses: %v", statuses)
	}

	deadline := time.Now().Add(2 * time.Second)
	for launcher.Running() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = http.Post(srv.URL+"/api/v1/jobs/"+id.String()+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for finished job, got %d", resp.StatusCode)
	}
}

func TestGetJob_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/jobs/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	for _, path := range []string{"", "/steps", "/tasks"} {
		resp, err := http.Get(srv.URL + "/api/v1/jobs/" + uuid.NewString() + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%q: expected 404, got %d", path, resp.StatusCode)
		}
	}

	resp, err = http.Get(srv.URL + "/api/v1/jobs?limit=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestSubmitJob_Disabled(t *testing.T) {
	h := NewHandler(Config{Store: NewMemoryStore(), Logger: testLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(pipelineJSON))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMemoryStore_Pagination(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		store.Report(context.Background(), domain.Event{
			Kind:   domain.EventJobStarted,
			JobID:  uuid.New(),
			Job:    "eval",
			Status: string(domain.JobStatusRunning),
		})
	}

	jobs, err := store.ListJobs(context.Background(), repo.JobFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}

	jobs, _ = store.ListJobs(context.Background(), repo.JobFilter{Offset: 10})
	if len(jobs) != 0 {
		t.Errorf("expected empty page, got %d", len(jobs))
	}

	jobs, _ = store.ListJobs(context.Background(), repo.JobFilter{Name: "other"})
	if len(jobs) != 0 {
		t.Errorf("expected no jobs for other name, got %d", len(jobs))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var ctxID string
	h := Chain(RequestID(logger), Logging(), Recovery())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/late-panic" {
			w.WriteHeader(http.StatusAccepted)
			panic("after header")
		}
		ctxID = r.Header.Get(HeaderRequestID)
		NotFound(w, "nope")
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get(HeaderRequestID); got != "req-1" || ctxID != "req-1" {
		t.Errorf("request id not propagated: header=%q handler=%q", got, ctxID)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("unexpected log: %s", buf.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/late-panic", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status must not be rewritten after header, got %d", rec.Code)
	}
}
