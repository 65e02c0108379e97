package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Evalflow/internal/domain"
)

func TestRoutingKey(t *testing.T) {
	tests := map[domain.EventKind]string{
		domain.EventJobStarted:   "job.started",
		domain.EventJobFinished:  "job.finished",
		domain.EventStepStarted:  "step.started",
		domain.EventStepFinished: "step.finished",
		domain.EventTaskFinished: "task.finished",
	}
	for kind, want := range tests {
		if got := RoutingKey(kind); got != want {
			t.Errorf("%s: expected %s, got %s", kind, want, got)
		}
	}
}

func TestPublisher_Report(t *testing.T) {
	var (
		gotExchange, gotKey string
		gotMsg              amqp.Publishing
	)
	p := &Publisher{
		publish: func(_ context.Context, exchange, key string, msg amqp.Publishing) error {
			gotExchange, gotKey, gotMsg = exchange, key, msg
			return nil
		},
		logger: discardLogger(),
	}

	ev := domain.Event{
		Kind:   domain.EventStepFinished,
		JobID:  uuid.New(),
		Job:    "eval",
		Step:   "predict",
		Status: string(domain.StepStatusSuccess),
	}
	if err := p.Report(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotExchange != ExchangeEvents || gotKey != "step.finished" {
		t.Errorf("unexpected destination %s/%s", gotExchange, gotKey)
	}
	if gotMsg.CorrelationId != ev.JobID.String() || gotMsg.MessageId == "" {
		t.Errorf("unexpected headers: %+v", gotMsg)
	}

	decoded, err := DecodeEvent(gotMsg.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Step != "predict" || decoded.JobID != ev.JobID {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
}

func TestPublisher_ReportError(t *testing.T) {
	p := &Publisher{
		publish: func(context.Context, string, string, amqp.Publishing) error {
			return ErrNoChannel
		},
		logger: discardLogger(),
	}

	err := p.Report(context.Background(), domain.Event{Kind: domain.EventJobStarted})
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	if _, err := DecodeEvent([]byte("not json")); err == nil {
		t.Error("expected error for invalid json")
	}

	body, _ := json.Marshal(Message{ID: "1"})
	if _, err := DecodeEvent(body); err == nil {
		t.Error("expected error for empty kind")
	}
}
