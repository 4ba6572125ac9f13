package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/userdir-server/internal/logger"
)

type requestIDGetter interface {
	GetRequestID(ctx context.Context) (string, bool)
}

// Logging logs method, path, status and duration of every request.
type Logging struct {
	logger *logger.Logger
	ctxMgr requestIDGetter
}

func NewLogging(logger *logger.Logger, ctxMgr requestIDGetter) *Logging {
	return &Logging{logger: logger, ctxMgr: ctxMgr}
}

func (l *Logging) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		requestID, _ := l.ctxMgr.GetRequestID(r.Context())
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			l.logger.Error("HTTP request failed", attrs...)
		case rec.status >= http.StatusBadRequest:
			l.logger.Warn("HTTP request rejected", attrs...)
		default:
			l.logger.Info("HTTP request completed", attrs...)
		}
	})
}
