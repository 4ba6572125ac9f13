package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/userdir-server/internal/api/http/context"
	servertestutil "github.com/dtroode/userdir-server/internal/testutil"
)

func TestRequestID_Handle(t *testing.T) {
	ctxMgr := httpctx.NewManager()

	tests := []struct {
		name     string
		incoming string
	}{
		{name: "propagates caller id", incoming: "abc-123"},
		{name: "generates id", incoming: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen, _ = ctxMgr.GetRequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			NewRequestID(ctxMgr).Handle(next).ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestLogging_Handle(t *testing.T) {
	ctxMgr := httpctx.NewManager()
	lg := NewLogging(servertestutil.MakeNoopLogger(), ctxMgr)

	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
		rec := httptest.NewRecorder()
		lg.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, status, rec.Code)
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Run("implicit ok", func(t *testing.T) {
		rec := newStatusRecorder(httptest.NewRecorder())
		_, _ = rec.Write([]byte("x"))
		rec.WriteHeader(http.StatusTeapot)
		assert.Equal(t, http.StatusOK, rec.status)
	})

	t.Run("first header wins", func(t *testing.T) {
		rec := newStatusRecorder(httptest.NewRecorder())
		rec.WriteHeader(http.StatusNotFound)
		rec.WriteHeader(http.StatusOK)
		assert.Equal(t, http.StatusNotFound, rec.status)
	})
}

func TestMetrics_Handle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.Handle)
	r.HandleFunc("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet, http.MethodDelete)

	for _, path := range []string{"/users/1", "/users/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/users/1", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/users/{id}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodDelete, "/users/{id}")))

	expected := `
# HELP http_requests_total Total number of HTTP requests by method and endpoint.
# TYPE http_requests_total counter
http_requests_total{endpoint="/users/{id}",method="DELETE"} 1
http_requests_total{endpoint="/users/{id}",method="GET"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestMetrics_Unmatched(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Handle(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched")))
}

func TestRecovery_Handle(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		NewRecovery(servertestutil.MakeNoopLogger()).Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		NewRecovery(servertestutil.MakeNoopLogger()).Handle(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
