package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/engine"
	"github.com/shaiso/Evalflow/internal/repo"
)

// maxSpecSize — предельный размер тела POST /api/v1/jobs.
const maxSpecSize = 1 << 20

// ListJobs возвращает список jobs.
// GET /api/v1/jobs?name=...&status=...&limit=...&offset=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.JobFilter{
		Name:   q.Get("name"),
		Status: domain.JobStatus(strings.ToUpper(q.Get("status"))),
		Limit:  parseInt(q.Get("limit"), 50),
		Offset: parseInt(q.Get("offset"), 0),
	}
	if filter.Limit <= 0 || filter.Offset < 0 {
		BadRequest(w, "limit must be positive and offset non-negative")
		return
	}

	jobs, err := h.store.ListJobs(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		result[i] = JobFromDomain(job)
	}
	List(w, result, len(result))
}

// SubmitJob принимает JobSpec (JSON или YAML) и запускает job в фоне.
// POST /api/v1/jobs
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if h.launcher == nil {
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "job submission is disabled")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSpecSize))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}

	format := engine.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = engine.FormatYAML
	}

	spec, err := engine.ParseJobSpec(body, format)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	job, err := h.launcher.Submit(spec)
	if HandleError(w, h.logger, err) {
		return
	}

	h.logger.Info("job submitted", "job_id", job.ID, "job", job.Name, "steps", len(spec.Steps))
	Accepted(w, JobFromDomain(job))
}

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	job, err := h.store.GetJob(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, JobFromDomain(*job))
}

// CancelJob отменяет выполняющийся job.
// POST /api/v1/jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	if h.launcher == nil {
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "job submission is disabled")
		return
	}

	if HandleError(w, h.logger, h.launcher.Cancel(id)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListJobSteps возвращает шаги job.
// GET /api/v1/jobs/{id}/steps
func (h *Handler) ListJobSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	records, err := h.store.ListSteps(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]StepResponse, len(records))
	for i, rec := range records {
		result[i] = StepFromDomain(rec)
	}
	List(w, result, len(result))
}

// ListJobTasks возвращает задачи job.
// GET /api/v1/jobs/{id}/tasks?step=...
func (h *Handler) ListJobTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	records, err := h.store.ListTasks(r.Context(), id, r.URL.Query().Get("step"))
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]TaskResponse, len(records))
	for i, rec := range records {
		result[i] = TaskFromDomain(rec)
	}
	List(w, result, len(result))
}

func jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return uuid.Nil, false
	}
	return id, true
}

// parseInt возвращает def для пустой строки и -1 для некорректной.
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
