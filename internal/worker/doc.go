// Package worker выполняет задачи одного шага.
//
// Executor получает шаг в статусе RUNNING и его разрешённый handler,
// запускает все задачи шага на пуле из step.Concurrency горутин и
// переводит шаг в SUCCESS или FAILED:
//
//	exec := worker.New(worker.Config{Reporter: reporter, Logger: logger})
//	result, err := exec.Execute(ctx, step, handler)
//
// Каждая задача:
//   - переходит в RUNNING с отметкой времени
//   - вызывает handler со своим TaskContext (с таймаутом шага, если задан)
//   - при ошибке или панике получает TaskHandlerError и статус FAILED
//   - сообщает TASK_FINISHED через Reporter
//
// Отказ задачи не влияет на соседние задачи. Отказ шага выражается
// только его статусом, Execute возвращает ошибку лишь при неверном
// использовании (шаг не в RUNNING).
package worker
