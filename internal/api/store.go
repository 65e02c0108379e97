package api

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/repo"
)

// ErrJobNotFound — job с таким ID неизвестен хранилищу.
var ErrJobNotFound = errors.New("job not found")

// JobStore — источник истории запусков для API.
type JobStore interface {
	ListJobs(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListSteps(ctx context.Context, jobID uuid.UUID) ([]domain.StepRecord, error)
	ListTasks(ctx context.Context, jobID uuid.UUID, step string) ([]domain.TaskRecord, error)
}

// MemoryStore — JobStore в памяти, наполняется событиями.
// Реализует scheduler.Reporter.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*memoryJob
	order []uuid.UUID
}

type memoryJob struct {
	job   domain.Job
	steps map[string]domain.StepRecord
	tasks map[string]map[int]domain.TaskRecord
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*memoryJob)}
}

// Report применяет событие к хранилищу.
func (s *MemoryStore) Report(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mj := s.jobs[ev.JobID]
	if mj == nil {
		mj = &memoryJob{
			job:   domain.Job{ID: ev.JobID, Name: ev.Job, Status: domain.JobStatusPending, CreatedAt: ev.Timestamp},
			steps: make(map[string]domain.StepRecord),
			tasks: make(map[string]map[int]domain.TaskRecord),
		}
		s.jobs[ev.JobID] = mj
		s.order = append(s.order, ev.JobID)
	}

	switch ev.Kind {
	case domain.EventJobStarted, domain.EventJobFinished:
		job := domain.JobFromEvent(ev)
		job.Version = mj.job.Version
		if job.Name == "" {
			job.Name = mj.job.Name
		}
		if !mj.job.CreatedAt.IsZero() {
			job.CreatedAt = mj.job.CreatedAt
		}
		mj.job = job

	case domain.EventStepStarted, domain.EventStepFinished:
		mj.steps[ev.Step] = domain.StepRecordFromEvent(ev)

	case domain.EventTaskFinished:
		if mj.tasks[ev.Step] == nil {
			mj.tasks[ev.Step] = make(map[int]domain.TaskRecord)
		}
		mj.tasks[ev.Step][ev.Index] = domain.TaskRecordFromEvent(ev)
	}
	return nil
}

// Put регистрирует job до первого события (статус PENDING).
func (s *MemoryStore) Put(job domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mj, ok := s.jobs[job.ID]; ok {
		mj.job.Version = job.Version
		return
	}
	s.jobs[job.ID] = &memoryJob{
		job:   job,
		steps: make(map[string]domain.StepRecord),
		tasks: make(map[string]map[int]domain.TaskRecord),
	}
	s.order = append(s.order, job.ID)
}

// ListJobs возвращает jobs, новые первыми.
func (s *MemoryStore) ListJobs(_ context.Context, filter repo.JobFilter) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		job := s.jobs[s.order[i]].job
		if filter.Name != "" && job.Name != filter.Name {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, job)
	}

	if filter.Offset >= len(jobs) {
		return []domain.Job{}, nil
	}
	jobs = jobs[filter.Offset:]
	if filter.Limit > 0 && len(jobs) > filter.Limit {
		jobs = jobs[:filter.Limit]
	}
	return jobs, nil
}

// GetJob возвращает job по ID.
func (s *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mj, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	job := mj.job
	return &job, nil
}

// ListSteps возвращает шаги job в порядке запуска.
func (s *MemoryStore) ListSteps(_ context.Context, jobID uuid.UUID) ([]domain.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mj, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}

	steps := make([]domain.StepRecord, 0, len(mj.steps))
	for _, step := range mj.steps {
		steps = append(steps, step)
	}
	slices.SortFunc(steps, func(a, b domain.StepRecord) int {
		if c := compareTimes(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return steps, nil
}

// ListTasks возвращает задачи job. Пустой step — все шаги.
func (s *MemoryStore) ListTasks(_ context.Context, jobID uuid.UUID, step string) ([]domain.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mj, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}

	tasks := make([]domain.TaskRecord, 0)
	for name, byIndex := range mj.tasks {
		if step != "" && name != step {
			continue
		}
		for _, task := range byIndex {
			tasks = append(tasks, task)
		}
	}
	slices.SortFunc(tasks, func(a, b domain.TaskRecord) int {
		if c := cmp.Compare(a.Step, b.Step); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return tasks, nil
}

// compareTimes упорядочивает по StartedAt; незапущенные шаги в конце.
func compareTimes(a, b domain.StepRecord) int {
	switch {
	case a.StartedAt == nil && b.StartedAt == nil:
		return 0
	case a.StartedAt == nil:
		return 1
	case b.StartedAt == nil:
		return -1
	default:
		return a.StartedAt.Compare(*b.StartedAt)
	}
}

// RepoStore — JobStore поверх PostgreSQL.
type RepoStore struct {
	jobs  *repo.JobRepo
	steps *repo.StepRepo
	tasks *repo.TaskRepo
}

// NewRepoStore создаёт RepoStore.
func NewRepoStore(pool *pgxpool.Pool) *RepoStore {
	return &RepoStore{
		jobs:  repo.NewJobRepo(pool),
		steps: repo.NewStepRepo(pool),
		tasks: repo.NewTaskRepo(pool),
	}
}

func (s *RepoStore) ListJobs(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error) {
	return s.jobs.List(ctx, filter)
}

func (s *RepoStore) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *RepoStore) ListSteps(ctx context.Context, jobID uuid.UUID) ([]domain.StepRecord, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.steps.ListByJobID(ctx, jobID)
}

func (s *RepoStore) ListTasks(ctx context.Context, jobID uuid.UUID, step string) ([]domain.TaskRecord, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.tasks.ListByJobID(ctx, jobID, step)
}
