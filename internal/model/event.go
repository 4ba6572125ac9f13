package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names emitted after committed mutations.
const (
	EventUserAdded   = "user_added"
	EventUserUpdated = "user_updated"
	EventUserDeleted = "user_deleted"
)

// Event is a notification about a directory change.
type Event struct {
	Name      string         `json:"event"`
	UserID    *uuid.UUID     `json:"user_id"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier accepts events for best-effort delivery. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// EventSink delivers a single event to an external system.
type EventSink interface {
	Send(ctx context.Context, event Event) error
}
