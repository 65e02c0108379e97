// Package cli реализует команду evalflow.
//
// # Локальные команды
//
// run, validate, graph и schedule работают с файлом pipeline (JSON/YAML)
// в текущем процессе. События выполнения идут в лог и, если настроено,
// в PostgreSQL (db_url), RabbitMQ (rabbitmq_url) и Prometheus
// (--metrics-addr). watch читает события из RabbitMQ.
//
// # Команды API
//
// job list|show|steps|tasks|submit|cancel обращаются к evalflow-api
// через Client и не импортируют internal/api.
//
// # Вывод
//
// Данные печатаются таблицей (text/tabwriter) или JSON (--json) в stdout,
// сообщения в stderr:
//
//	evalflow job list --json | jq '.[].status'
//
// Команды создаются фабриками (NewRunCmd, NewJobCmd и т.д.), которые
// принимают замыкания envFn/clientFn/outputFn: окружение собирается
// лениво, после разбора PersistentFlags.
package cli
