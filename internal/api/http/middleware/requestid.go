package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDSetter interface {
	SetRequestID(ctx context.Context, id string) context.Context
}

// RequestID propagates the caller's X-Request-ID or generates one.
type RequestID struct {
	ctxMgr requestIDSetter
}

func NewRequestID(ctxMgr requestIDSetter) *RequestID {
	return &RequestID{ctxMgr: ctxMgr}
}

func (m *RequestID) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(m.ctxMgr.SetRequestID(r.Context(), id)))
	})
}
