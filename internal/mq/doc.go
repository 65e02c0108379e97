// Package mq публикует события выполнения job в RabbitMQ.
//
// Все события идут в topic exchange evalflow.events с ключом
// <сущность>.<фаза> (job.started, step.finished, task.finished).
// Очередь evalflow.events.history получает всё и читается evalflow-api;
// evalflow watch создаёт временную очередь со своими привязками.
package mq
