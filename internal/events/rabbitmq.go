package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the emitter needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitEmitter struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

// NewRabbitEmitter dials the broker and declares a durable queue.
func NewRabbitEmitter(url, queue string) (*RabbitEmitter, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("NewRabbitEmitter: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("NewRabbitEmitter: channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("NewRabbitEmitter: declare queue: %w", err)
	}
	return &RabbitEmitter{conn: conn, ch: ch, queue: queue}, nil
}

func NewRabbitEmitterWithChannel(ch Channel, queue string) *RabbitEmitter {
	return &RabbitEmitter{ch: ch, queue: queue}
}

func (r *RabbitEmitter) Emit(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("RabbitEmitter.Emit: marshal: %w", err)
	}
	err = r.ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID.String(),
		Type:         e.Type,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("RabbitEmitter.Emit: publish: %w", err)
	}
	return nil
}

func (r *RabbitEmitter) Close() error {
	if err := r.ch.Close(); err != nil {
		return fmt.Errorf("RabbitEmitter.Close: channel: %w", err)
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("RabbitEmitter.Close: connection: %w", err)
		}
	}
	return nil
}
