package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeEvents — topic exchange событий выполнения.
//
// Ключи маршрутизации: <сущность>.<фаза>, например job.started,
// step.finished, task.finished.
const ExchangeEvents = "evalflow.events"

// QueueHistory — durable очередь всех событий, её читает evalflow-api.
const QueueHistory = "evalflow.events.history"

// Шаблоны привязки.
const (
	BindAll   = "#"
	BindJobs  = "job.*"
	BindSteps = "step.*"
	BindTasks = "task.*"
)

// SetupTopology объявляет exchange и очередь истории.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch); err != nil {
			return err
		}

		_, err := ch.QueueDeclare(
			QueueHistory,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueHistory, err)
		}

		if err := ch.QueueBind(QueueHistory, BindAll, ExchangeEvents, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueHistory, err)
		}
		return nil
	})
}

// DeclareWatchQueue создаёт временную эксклюзивную очередь,
// привязанную к exchange по patterns, и возвращает её имя.
// Очередь удаляется брокером при закрытии соединения.
func DeclareWatchQueue(ctx context.Context, conn *Connection, patterns ...string) (string, error) {
	if len(patterns) == 0 {
		patterns = []string{BindAll}
	}

	var name string
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch); err != nil {
			return err
		}

		q, err := ch.QueueDeclare(
			"",    // имя генерирует брокер
			false, // durable
			true,  // auto-delete
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare watch queue: %w", err)
		}

		for _, pattern := range patterns {
			if err := ch.QueueBind(q.Name, pattern, ExchangeEvents, false, nil); err != nil {
				return fmt.Errorf("bind watch queue to %s: %w", pattern, err)
			}
		}

		name = q.Name
		return nil
	})
	return name, err
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeEvents,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}
	return nil
}
