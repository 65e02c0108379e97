package domain

// JobSpec — декларация pipeline: набор шагов и метаданные job.
//
// JobSpec приходит из файла (JSON/YAML) или через API и не меняется
// во время выполнения. Из него планировщик строит DAG и реестр шагов.
type JobSpec struct {
	// Name — имя pipeline (например, "mnist-eval").
	Name string `json:"name" yaml:"name"`

	// Version — версия job, передаётся в контекст каждой задачи.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Workdir — рабочая директория задач.
	// Может быть Go template: {{ .Job }}, {{ .Step }}, {{ .Index }}, {{ .Total }}, {{ .Version }}.
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`

	// ModelName — имя модели, над которой работает pipeline.
	ModelName string `json:"model_name,omitempty" yaml:"model_name,omitempty"`

	// DatasetURIs — ссылки на датасеты.
	DatasetURIs []string `json:"dataset_uris,omitempty" yaml:"dataset_uris,omitempty"`

	// DatasetHead — ограничение на количество записей датасета (0 — без ограничения).
	DatasetHead int `json:"dataset_head,omitempty" yaml:"dataset_head,omitempty"`

	// FailFast — после первого упавшего шага новые шаги не запускаются.
	FailFast bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`

	// Steps — шаги pipeline.
	Steps []StepSpec `json:"steps" yaml:"steps"`
}

// StepSpec — определение шага в pipeline.
type StepSpec struct {
	// Name — уникальное имя шага в рамках job ("predict", "evaluate").
	Name string `json:"name" yaml:"name"`

	// Needs — имена шагов, от которых зависит этот шаг.
	// Пустые элементы игнорируются.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`

	// Handler — идентификатор handler'а в реестре.
	Handler string `json:"handler" yaml:"handler"`

	// Concurrency — размер пула воркеров шага.
	// 0 — равен TaskNum.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	// TaskNum — количество задач (партиций) шага. 0 — одна задача.
	TaskNum int `json:"task_num,omitempty" yaml:"task_num,omitempty"`

	// TimeoutSec — таймаут одной задачи в секундах (0 — без таймаута).
	TimeoutSec int `json:"timeout_sec,omitempty" yaml:"timeout_sec,omitempty"`

	// Params — параметры handler'а.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Dependencies возвращает непустые имена зависимостей.
func (s *StepSpec) Dependencies() []string {
	deps := make([]string, 0, len(s.Needs))
	for _, name := range s.Needs {
		if name == "" {
			continue
		}
		deps = append(deps, name)
	}
	return deps
}

// Tasks возвращает количество задач шага с учётом значения по умолчанию.
func (s *StepSpec) Tasks() int {
	if s.TaskNum <= 0 {
		return 1
	}
	return s.TaskNum
}

// Workers возвращает размер пула воркеров, ограниченный [1, Tasks()].
func (s *StepSpec) Workers() int {
	tasks := s.Tasks()
	if s.Concurrency <= 0 || s.Concurrency > tasks {
		return tasks
	}
	return s.Concurrency
}
