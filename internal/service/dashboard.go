package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
	"github.com/dtroode/userdir-server/internal/stats"
)

// Dashboard builds aggregate views from a single store snapshot.
type Dashboard struct {
	store       model.UserStore
	logger      *logger.Logger
	trendDays   int
	recentLimit int
	now         func() time.Time
}

func NewDashboard(store model.UserStore, logger *logger.Logger, trendDays, recentLimit int) *Dashboard {
	return &Dashboard{
		store:       store,
		logger:      logger,
		trendDays:   trendDays,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

func (d *Dashboard) Summary(ctx context.Context) (model.DashboardSummary, error) {
	users, err := d.store.List(ctx)
	if err != nil {
		d.logger.Error("Dashboard service: failed to take snapshot", "error", err.Error())
		return model.DashboardSummary{}, fmt.Errorf("failed to list users: %w", err)
	}

	now := d.now()

	recent := users
	if d.recentLimit >= 0 && len(recent) > d.recentLimit {
		recent = recent[:d.recentLimit]
	}

	return model.DashboardSummary{
		Stats: model.DashboardStats{
			TotalUsers: stats.TotalCount(users),
			NewToday:   stats.NewToday(users, now),
			TopDomain:  stats.TopEmailDomain(users),
		},
		RecentUsers: recent,
		Trend:       stats.RegistrationTrend(users, now, d.trendDays),
	}, nil
}
