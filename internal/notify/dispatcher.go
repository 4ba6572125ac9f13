// Package notify delivers directory events to external sinks on a best-effort
// basis. Delivery runs off the request path, is bounded by a timeout and is
// never retried.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
)

// ErrClosed is reported for events offered after Close.
var ErrClosed = errors.New("dispatcher closed")

var _ model.Notifier = (*Dispatcher)(nil)

type job struct {
	ctx   context.Context
	event model.Event
}

// Dispatcher queues events and hands them to a sink from a pool of workers.
type Dispatcher struct {
	sink    model.EventSink
	logger  *logger.Logger
	timeout time.Duration
	queue   chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with a queue of queueSize events and
// starts workers goroutines draining it.
func NewDispatcher(sink model.EventSink, logger *logger.Logger, timeout time.Duration, queueSize, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	d := &Dispatcher{
		sink:    sink,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan job, queueSize),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Notify enqueues the event without blocking. When the queue is full or the
// dispatcher is closed, the event is dropped and logged.
func (d *Dispatcher) Notify(ctx context.Context, event model.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, ErrClosed)
		return
	}

	select {
	case d.queue <- job{ctx: ctx, event: event}:
	default:
		d.drop(event, errors.New("queue full"))
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.sink.Send(ctx, j.event); err != nil {
		d.logger.Warn("Notifier: failed to deliver event",
			"event", j.event.Name,
			"user_id", userID(j.event),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error())
		return
	}

	d.logger.Debug("Notifier: event delivered",
		"event", j.event.Name,
		"user_id", userID(j.event),
		"duration_ms", time.Since(start).Milliseconds())
}

func (d *Dispatcher) drop(event model.Event, reason error) {
	d.logger.Warn("Notifier: dropping event",
		"event", event.Name,
		"user_id", userID(event),
		"reason", reason.Error())
}

func userID(event model.Event) string {
	if event.UserID == nil {
		return ""
	}
	return event.UserID.String()
}
