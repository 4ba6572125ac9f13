package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
)

type DashboardService interface {
	Summary(ctx context.Context) (model.DashboardSummary, error)
}

type Dashboard struct {
	service DashboardService
	logger  *logger.Logger
}

func NewDashboard(service DashboardService, logger *logger.Logger) *Dashboard {
	return &Dashboard{service: service, logger: logger}
}

func (h *Dashboard) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "dashboard", err)
		return
	}

	if summary.RecentUsers == nil {
		summary.RecentUsers = []model.User{}
	}
	if summary.Trend == nil {
		summary.Trend = []model.TrendPoint{}
	}

	writeJSON(w, http.StatusOK, summary)
}
