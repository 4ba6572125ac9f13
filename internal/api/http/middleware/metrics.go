package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts requests by method and route template.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers http_requests_total with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by method and endpoint.",
	}, []string{"method", "endpoint"})
	reg.MustRegister(requests)

	return &Metrics{requests: requests}
}

func (m *Metrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		m.requests.WithLabelValues(r.Method, endpoint(r)).Inc()
	})
}

// endpoint uses the matched route template so that /users/{id} stays one series.
func endpoint(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
