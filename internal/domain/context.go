package domain

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// TaskContext — неизменяемый набор параметров одной задачи.
//
// Передаётся в handler по значению. NewTaskContext копирует слайсы и map,
// поэтому handler не может изменить контекст соседней задачи.
type TaskContext struct {
	// JobID — идентификатор job.
	JobID uuid.UUID `json:"job_id"`

	// Step — имя шага.
	Step string `json:"step"`

	// Handler — идентификатор handler'а шага.
	Handler string `json:"handler"`

	// Index — номер партиции (с нуля).
	Index int `json:"index"`

	// Total — общее количество партиций шага.
	Total int `json:"total"`

	// Workdir — рабочая директория задачи.
	Workdir string `json:"workdir,omitempty"`

	// DatasetURIs — ссылки на датасеты job.
	DatasetURIs []string `json:"dataset_uris,omitempty"`

	// Version — версия job.
	Version string `json:"version,omitempty"`

	// ModelName — имя модели.
	ModelName string `json:"model_name,omitempty"`

	// DatasetHead — ограничение на количество записей датасета.
	DatasetHead int `json:"dataset_head,omitempty"`

	// Params — параметры handler'а из StepSpec.
	Params map[string]any `json:"params,omitempty"`
}

// NewTaskContext создаёт контекст задачи index из total для шага step.
func NewTaskContext(jobID uuid.UUID, job *JobSpec, step *StepSpec, index, total int, workdir string) TaskContext {
	return TaskContext{
		JobID:       jobID,
		Step:        step.Name,
		Handler:     step.Handler,
		Index:       index,
		Total:       total,
		Workdir:     workdir,
		DatasetURIs: slices.Clone(job.DatasetURIs),
		Version:     job.Version,
		ModelName:   job.ModelName,
		DatasetHead: job.DatasetHead,
		Params:      maps.Clone(step.Params),
	}
}

// Partition возвращает границы партиции этой задачи в датасете из dataSize записей.
func (c TaskContext) Partition(dataSize int) (start, end int) {
	return Partition(dataSize, c.Index, c.Total)
}

// Partition делит dataSize записей на total непрерывных партиций и
// возвращает полуинтервал [start, end) партиции index.
//
// start = floor(n*index/total), end = floor(n*(index+1)/total).
// Если dataSize <= total, обе границы дополнительно ограничиваются dataSize-1.
func Partition(dataSize, index, total int) (start, end int) {
	if dataSize <= 0 || total <= 0 {
		return 0, 0
	}

	start = dataSize * index / total
	end = dataSize * (index + 1) / total

	if dataSize <= total {
		start = min(start, dataSize-1)
		end = min(end, dataSize-1)
	}

	return start, end
}
