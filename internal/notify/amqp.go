package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dtroode/userdir-server/internal/model"
)

// AMQPChannel is the subset of *amqp.Channel used by AMQPSink.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes events to a durable RabbitMQ queue through the default exchange.
type AMQPSink struct {
	conn    *amqp.Connection
	channel AMQPChannel
	queue   string
}

func NewAMQPSink(url, queue string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPSink{conn: conn, channel: ch, queue: queue}, nil
}

// NewAMQPSinkWithChannel allows injecting a test channel.
func NewAMQPSinkWithChannel(ch AMQPChannel, queue string) *AMQPSink {
	return &AMQPSink{channel: ch, queue: queue}
}

func (s *AMQPSink) Send(ctx context.Context, event model.Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Type:         event.Name,
		Body:         body,
	}
	if err := s.channel.PublishWithContext(ctx, "", s.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to rabbitmq: %w", err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
