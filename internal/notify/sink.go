package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
)

// Multi fans an event out to every sink concurrently. Each sink runs under
// its own timeout so a stalled sink cannot use up the budget of the others.
// It reports every failure but always attempts all sinks.
type Multi struct {
	sinks   []model.EventSink
	timeout time.Duration
}

// NewMulti creates a Multi. A non-positive timeout leaves sinks bounded only
// by the caller's context.
func NewMulti(timeout time.Duration, sinks ...model.EventSink) *Multi {
	return &Multi{sinks: sinks, timeout: timeout}
}

func (m *Multi) Send(ctx context.Context, event model.Event) error {
	errs := make([]error, len(m.sinks))

	var wg sync.WaitGroup
	wg.Add(len(m.sinks))
	for i, sink := range m.sinks {
		go func() {
			defer wg.Done()

			errs[i] = m.send(ctx, sink, event)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (m *Multi) send(ctx context.Context, sink model.EventSink, event model.Event) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return sink.Send(ctx, event)
}

// LogSink records events in the application log.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(logger *logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, event model.Event) error {
	s.logger.Info("Notifier: event",
		"event", event.Name,
		"user_id", userID(event),
		"details", event.Details,
		"timestamp", event.Timestamp)
	return nil
}

func encode(event model.Event) ([]byte, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}
