package scheduler

import (
	"fmt"
	"sync"

	"github.com/shaiso/Evalflow/internal/domain"
	"github.com/shaiso/Evalflow/internal/engine"
	"github.com/shaiso/Evalflow/internal/steps"
)

// JobState — состояние выполнения одного job в памяти.
//
// Содержит:
//   - Job и исходный JobSpec
//   - Построенный DAG (только чтение во время выполнения)
//   - Шаги с задачами и разрешёнными handler'ами
//
// Статус каждого шага защищён мьютексом самого шага, mu защищает
// Job и флаг активного запуска.
type JobState struct {
	// Spec — исходная декларация pipeline.
	Spec *domain.JobSpec

	// DAG — граф зависимостей шагов.
	DAG *engine.DAG

	job      *domain.Job
	steps    map[string]*domain.Step
	handlers map[string]steps.Handler

	// order — шаги в топологическом порядке.
	order []string

	mu      sync.RWMutex
	running bool
}

// NewJobState валидирует spec, строит DAG, разрешает handler'ы
// и разворачивает каждый шаг в TaskNum задач.
func NewJobState(spec *domain.JobSpec, registry *steps.Registry) (*JobState, error) {
	if registry == nil {
		registry = steps.DefaultRegistry()
	}

	// 1. Валидация JobSpec
	if err := engine.ValidateJob(spec, registry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJobSpec, err)
	}

	// 2. Построение DAG
	dag, err := engine.BuildGraph(spec)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	s := &JobState{
		Spec:     spec,
		DAG:      dag,
		job:      domain.NewJob(spec),
		steps:    make(map[string]*domain.Step, len(spec.Steps)),
		handlers: make(map[string]steps.Handler, len(spec.Steps)),
		order:    dag.TopologicalOrder(),
	}

	// 3. Шаги, handler'ы и задачи
	for i := range spec.Steps {
		stepSpec := &spec.Steps[i]

		handler, err := registry.Get(stepSpec.Handler)
		if err != nil {
			return nil, fmt.Errorf("%w: step %s: %w", ErrInvalidJobSpec, stepSpec.Name, err)
		}

		step := domain.NewStep(stepSpec)
		if err := s.expandTasks(step, stepSpec); err != nil {
			return nil, err
		}

		s.steps[step.Name] = step
		s.handlers[step.Name] = handler
	}

	return s, nil
}

// expandTasks создаёт задачи шага с Index 0..k-1 и Total == k.
func (s *JobState) expandTasks(step *domain.Step, stepSpec *domain.StepSpec) error {
	total := stepSpec.Tasks()

	for i := 0; i < total; i++ {
		data := engine.TaskData{
			Job:     s.Spec.Name,
			JobID:   s.job.ID.String(),
			Step:    stepSpec.Name,
			Index:   i,
			Total:   total,
			Version: s.Spec.Version,
			Model:   s.Spec.ModelName,
		}

		workdir, err := engine.RenderWorkdir(s.Spec.Workdir, data)
		if err != nil {
			return fmt.Errorf("step %s: render workdir: %w", stepSpec.Name, err)
		}

		params, err := engine.RenderParams(stepSpec.Params, data)
		if err != nil {
			return fmt.Errorf("step %s: render params: %w", stepSpec.Name, err)
		}

		tc := domain.NewTaskContext(s.job.ID, s.Spec, stepSpec, i, total, workdir)
		tc.Params = params

		step.Tasks = append(step.Tasks, domain.NewTask(step.Name, tc))
	}

	return nil
}

// Job возвращает копию текущего состояния job.
func (s *JobState) Job() domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.job
}

// Step возвращает шаг по имени.
func (s *JobState) Step(name string) (*domain.Step, error) {
	step, ok := s.steps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}
	return step, nil
}

// Steps возвращает шаги в топологическом порядке.
func (s *JobState) Steps() []*domain.Step {
	result := make([]*domain.Step, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.steps[name])
	}
	return result
}

// Handler возвращает разрешённый handler шага.
func (s *JobState) Handler(name string) steps.Handler {
	return s.handlers[name]
}

// ReadySteps возвращает шаги в статусе INIT, все зависимости которых
// завершились успешно.
func (s *JobState) ReadySteps() []*domain.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ready := make([]*domain.Step, 0)
	for _, name := range s.order {
		step := s.steps[name]
		if step.Status() != domain.StepStatusInit {
			continue
		}
		if s.needsSatisfied(step) {
			ready = append(ready, step)
		}
	}
	return ready
}

func (s *JobState) needsSatisfied(step *domain.Step) bool {
	for _, need := range step.Needs {
		dep, ok := s.steps[need]
		if !ok || dep.Status() != domain.StepStatusSuccess {
			return false
		}
	}
	return true
}

// UnsatisfiedNeeds возвращает зависимости шага, которые не завершились успешно.
func (s *JobState) UnsatisfiedNeeds(step *domain.Step) []string {
	var result []string
	for _, need := range step.Needs {
		if dep, ok := s.steps[need]; !ok || dep.Status() != domain.StepStatusSuccess {
			result = append(result, need)
		}
	}
	return result
}

// IsFinished возвращает true, если все шаги в терминальном статусе.
func (s *JobState) IsFinished() bool {
	for _, step := range s.steps {
		if !step.Status().IsTerminal() {
			return false
		}
	}
	return true
}

// acquire помечает JobState как выполняемый.
// Возвращает false, если запуск уже идёт.
func (s *JobState) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *JobState) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *JobState) markJobRunning() domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.MarkRunning()
	return *s.job
}

func (s *JobState) markJobFinished(status domain.JobStatus, errMsg string) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.MarkFinished(status, errMsg)
	return *s.job
}
