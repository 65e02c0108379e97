package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Evalflow/internal/domain"
)

const namespace = "evalflow"

// Metrics — Prometheus метрики выполнения job.
//
// Реализует Reporter: обновляется по событиям планировщика.
type Metrics struct {
	JobsTotal    *prometheus.CounterVec
	StepsTotal   *prometheus.CounterVec
	TasksTotal   *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec
	StepDuration *prometheus.HistogramVec
	StepsRunning prometheus.Gauge
	JobsRunning  prometheus.Gauge
}

// NewMetrics регистрирует метрики в reg.
// Для глобального реестра передайте prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished jobs by final status",
		}, []string{"job", "status"}),

		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Finished steps by final status",
		}, []string{"job", "step", "status"}),

		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Finished tasks by final status",
		}, []string{"job", "step", "status"}),

		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task handler wall time",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"job", "step"}),

		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Step wall time from RUNNING to a final status",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"job", "step"}),

		StepsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steps_running",
			Help:      "Steps currently in RUNNING status",
		}),

		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Jobs currently running",
		}),
	}
}

// Report обновляет метрики по событию.
func (m *Metrics) Report(_ context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.EventJobStarted:
		m.JobsRunning.Inc()

	case domain.EventJobFinished:
		m.JobsRunning.Dec()
		m.JobsTotal.WithLabelValues(ev.Job, ev.Status).Inc()

	case domain.EventStepStarted:
		m.StepsRunning.Inc()

	case domain.EventStepFinished:
		// BLOCKED шаги не проходили через RUNNING.
		if ev.Status != string(domain.StepStatusBlocked) {
			m.StepsRunning.Dec()
			m.StepDuration.WithLabelValues(ev.Job, ev.Step).Observe(ev.Duration().Seconds())
		}
		m.StepsTotal.WithLabelValues(ev.Job, ev.Step, ev.Status).Inc()

	case domain.EventTaskFinished:
		m.TasksTotal.WithLabelValues(ev.Job, ev.Step, ev.Status).Inc()
		m.TaskDuration.WithLabelValues(ev.Job, ev.Step).Observe(ev.Duration().Seconds())
	}

	return nil
}
