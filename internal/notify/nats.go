package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/dtroode/userdir-server/internal/model"
)

// NATSConn is the subset of *nats.Conn used by NATSSink.
type NATSConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSSink publishes events on a subject.
type NATSSink struct {
	conn    NATSConn
	subject string
}

func NewNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("userdir-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return NewNATSSinkWithConn(nc, subject), nil
}

// NewNATSSinkWithConn allows injecting a test connection.
func NewNATSSinkWithConn(conn NATSConn, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

// Send publishes and flushes, so a server that cannot be reached within the
// delivery timeout surfaces as an error.
func (s *NATSSink) Send(ctx context.Context, event model.Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}
	return nil
}

func (s *NATSSink) Close() error {
	s.conn.Close()
	return nil
}
