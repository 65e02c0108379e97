package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Evalflow/internal/domain"
)

// Message — конверт события в очереди.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события.
	Type domain.EventKind `json:"type"`

	// Payload — само событие.
	Payload domain.Event `json:"payload"`

	// Timestamp — время публикации.
	Timestamp time.Time `json:"timestamp"`
}

// RoutingKey возвращает ключ маршрутизации для типа события:
// JOB_STARTED → job.started.
func RoutingKey(kind domain.EventKind) string {
	return strings.ToLower(strings.Replace(string(kind), "_", ".", 1))
}

// publishFunc отправляет одно сообщение в exchange.
type publishFunc func(ctx context.Context, exchange, key string, msg amqp.Publishing) error

// Publisher публикует события выполнения в ExchangeEvents.
// Реализует scheduler.Reporter.
type Publisher struct {
	publish publishFunc
	logger  *slog.Logger
}

// NewPublisher создаёт Publisher поверх соединения.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		publish: func(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
			return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
				return ch.PublishWithContext(ctx, exchange, key, false, false, msg)
			})
		},
		logger: logger,
	}
}

// Report публикует событие.
func (p *Publisher) Report(ctx context.Context, ev domain.Event) error {
	msg := Message{
		ID:        uuid.New().String(),
		Type:      ev.Kind,
		Payload:   ev,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := RoutingKey(ev.Kind)
	err = p.publish(ctx, ExchangeEvents, key, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.ID,
		CorrelationId: ev.JobID.String(),
		Type:          string(ev.Kind),
		Timestamp:     msg.Timestamp,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.logger.Debug("published event",
		"routing_key", key,
		"message_id", msg.ID,
		"job_id", ev.JobID,
	)
	return nil
}
