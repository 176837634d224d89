// Package service holds the application services that span several
// repositories or external systems.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/queue"
)

// EventPublisher delivers lab activity events. Implementations must be safe
// for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.LabEvent) error
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.LabEvent) error { return nil }

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue through the default exchange. Each publish uses its own connection.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// NewAMQPPublisher returns a publisher for the named queue at url. It
// does not connect until Publish is called.
func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queueName}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.LabEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Notify publishes ev in the background. Failures are logged and never
// reach the caller.
func Notify(p EventPublisher, ev queue.LabEvent) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			logger.Warningf("events: publish %s for assignment %s: %v", ev.Type, ev.AssignmentID, err)
		}
	}()
}
