// Package scheduler выполняет шаги job в порядке зависимостей.
//
// Структура:
//   - state.go     — JobState: шаги, задачи, DAG, разрешённые handler'ы
//   - scheduler.go — цикл координатора (волны по готовности)
//   - summary.go   — итог выполнения и статус job
//   - report.go    — Reporter и его комбинаторы
//
// Использование:
//
//	state, err := scheduler.NewJobState(spec, steps.DefaultRegistry())
//	if err != nil {
//	    // невалидный JobSpec: цикл, неизвестный handler, дубликат имени
//	}
//
//	sched := scheduler.New(state, scheduler.Config{
//	    Reporter: scheduler.Reporters{recorder, publisher, metrics},
//	    Logger:   logger,
//	})
//	summary, err := sched.Run(ctx)
//
// Шаг запускается, когда все его зависимости в SUCCESS. Шаги, которые
// так и не стали готовы (упавшая зависимость, fail-fast, отмена),
// после завершения цикла переводятся в BLOCKED.
package scheduler
