// Package health keeps the gRPC health status in line with the reachability
// of the user store.
package health

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/userdir-server/internal/logger"
)

// ServiceName is the health service key for the user directory.
const ServiceName = "userdir.v1.Directory"

type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusSetter is satisfied by *health.Server from grpc.
type StatusSetter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// Probe pings the store on an interval and publishes the result both for the
// whole server ("") and for ServiceName.
type Probe struct {
	pinger   Pinger
	setter   StatusSetter
	logger   *logger.Logger
	interval time.Duration
	timeout  time.Duration
	last     healthpb.HealthCheckResponse_ServingStatus
}

func NewProbe(pinger Pinger, setter StatusSetter, logger *logger.Logger, interval time.Duration) *Probe {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}

	return &Probe{
		pinger:   pinger,
		setter:   setter,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		last:     healthpb.HealthCheckResponse_UNKNOWN,
	}
}

// Check pings once and updates the serving status.
func (p *Probe) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := p.pinger.Ping(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		if p.last != st {
			p.logger.Warn("Health probe: store unreachable", "error", err.Error())
		}
	} else if p.last == healthpb.HealthCheckResponse_NOT_SERVING {
		p.logger.Info("Health probe: store reachable again")
	}

	p.setter.SetServingStatus("", st)
	p.setter.SetServingStatus(ServiceName, st)
	p.last = st

	return st
}

// Run checks immediately and then on every tick until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)

	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
