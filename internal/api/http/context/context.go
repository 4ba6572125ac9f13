package context

import (
	"context"
)

type requestIDKey struct{}

// Manager stores and retrieves the per-request correlation id.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SetRequestID returns a copy of ctx carrying id.
func (m *Manager) SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the id set by SetRequestID, if any.
func (m *Manager) GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
