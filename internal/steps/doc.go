// Package steps содержит handler'ы задач и их реестр.
//
// Handler — пользовательская логика одной задачи шага. Каждая задача
// получает свой domain.TaskContext (партиция Index из Total, workdir,
// датасеты, параметры шага) и возвращает ошибку или nil.
//
// Встроенные handler'ы (DefaultRegistry):
//   - noop  — успешно завершается сразу
//   - fail  — всегда падает (проверка распространения отказов)
//   - delay — пауза duration_sec / duration_ms
//   - http  — отправляет TaskContext во внешний сервис
//   - exec  — запускает процесс ОС с контекстом в EVALFLOW_*
//   - manifest — пишет JSON-манифест партиции в workdir
//
// Свои handler'ы регистрируются до запуска планировщика:
//
//	registry := steps.DefaultRegistry()
//	registry.RegisterFunc("predict", func(ctx context.Context, tc domain.TaskContext) error {
//	    start, end := tc.Partition(len(records))
//	    return predict(ctx, records[start:end])
//	})
//
// Повторов нет: ошибка handler'а делает задачу FAILED.
package steps
