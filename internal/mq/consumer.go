package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Evalflow/internal/domain"
)

// Handler обрабатывает событие. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, ev domain.Event) error

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Handler — обработчик событий.
	Handler Handler

	// Prefetch — сколько сообщений брокер отдаёт без ack (по умолчанию 16).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// Consumer читает события из очереди и передаёт их Handler'у.
type Consumer struct {
	conn     *Connection
	queue    string
	handler  Handler
	prefetch int
	logger   *slog.Logger
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 16
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
		logger:   logger.With("queue", cfg.Queue),
	}
}

// Run потребляет сообщения до отмены ctx. После разрыва соединения
// ждёт переподключения и подписывается заново.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.process(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("deliveries closed, waiting for reconnect")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}
	return deliveries, nil
}

// process возвращается при отмене ctx или закрытии deliveries.
func (c *Consumer) process(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, raw)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	ev, err := DecodeEvent(raw.Body)
	if err != nil {
		c.logger.Error("dropping malformed message", "message_id", raw.MessageId, "error", err)
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, ev); err != nil {
		c.logger.Error("handler failed",
			"message_id", raw.MessageId,
			"event", ev.Kind,
			"error", err,
		)
		raw.Nack(false, !raw.Redelivered)
		return
	}

	raw.Ack(false)
}

// DecodeEvent извлекает событие из тела сообщения.
func DecodeEvent(body []byte) (domain.Event, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.Event{}, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.Payload.Kind == "" {
		return domain.Event{}, fmt.Errorf("message %s: empty event kind", msg.ID)
	}
	return msg.Payload, nil
}
