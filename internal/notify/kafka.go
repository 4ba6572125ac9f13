package notify

import (
	"context"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"github.com/dtroode/userdir-server/internal/model"
)

// kafkaBatchTimeout caps how long a single event waits for a batch to fill.
const kafkaBatchTimeout = 10 * time.Millisecond

// KafkaWriter is the subset of kafka.Writer used by KafkaSink.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaSink publishes events to a topic keyed by user id, so events for one
// user stay ordered within a partition.
type KafkaSink struct {
	writer KafkaWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		BatchTimeout: kafkaBatchTimeout,
	}
	return &KafkaSink{writer: w}
}

// NewKafkaSinkWithWriter allows injecting a test writer.
func NewKafkaSinkWithWriter(w KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Send(ctx context.Context, event model.Event) error {
	value, err := encode(event)
	if err != nil {
		return err
	}

	msg := skafka.Message{
		Key:   []byte(userID(event)),
		Value: value,
		Time:  event.Timestamp,
		Headers: []skafka.Header{
			{Key: "event", Value: []byte(event.Name)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
