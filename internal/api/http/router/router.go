package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpctx "github.com/dtroode/userdir-server/internal/api/http/context"
	"github.com/dtroode/userdir-server/internal/api/http/handler"
	"github.com/dtroode/userdir-server/internal/api/http/middleware"
	"github.com/dtroode/userdir-server/internal/logger"
)

// Registry both registers and exposes metrics.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Router wires the public HTTP API.
type Router struct {
	userService      handler.UserService
	dashboardService handler.DashboardService
	registry         Registry
	contextManager   *httpctx.Manager
	logger           *logger.Logger
}

func New(
	userService handler.UserService,
	dashboardService handler.DashboardService,
	registry Registry,
	contextManager *httpctx.Manager,
	logger *logger.Logger,
) *Router {
	return &Router{
		userService:      userService,
		dashboardService: dashboardService,
		registry:         registry,
		contextManager:   contextManager,
		logger:           logger,
	}
}

// Register builds the handler tree. Recovery, request ids and access logs
// wrap the whole router; metrics run per matched route.
func (r *Router) Register() http.Handler {
	m := mux.NewRouter()
	m.Use(middleware.NewMetrics(r.registry).Handle)

	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"Method not allowed"}` + "\n"))
	})

	r.registerUserRoutes(m)
	r.registerDashboardRoutes(m)

	m.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	m.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	var h http.Handler = m
	h = middleware.NewLogging(r.logger, r.contextManager).Handle(h)
	h = middleware.NewRequestID(r.contextManager).Handle(h)
	h = middleware.NewRecovery(r.logger).Handle(h)

	return h
}

func (r *Router) registerUserRoutes(m *mux.Router) {
	users := handler.NewUser(r.userService, r.logger)

	m.HandleFunc("/users", users.List).Methods(http.MethodGet)
	m.HandleFunc("/users", users.Create).Methods(http.MethodPost)
	m.HandleFunc("/users/{id}", users.Get).Methods(http.MethodGet)
	m.HandleFunc("/users/{id}", users.Update).Methods(http.MethodPut)
	m.HandleFunc("/users/{id}", users.Delete).Methods(http.MethodDelete)
}

func (r *Router) registerDashboardRoutes(m *mux.Router) {
	dashboard := handler.NewDashboard(r.dashboardService, r.logger)

	m.HandleFunc("/dashboard", dashboard.Get).Methods(http.MethodGet)
}
