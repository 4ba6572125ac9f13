package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	grpchealth "google.golang.org/grpc/health"

	healthprobe "github.com/dtroode/userdir-server/internal/api/grpc/health"
	grpcrouter "github.com/dtroode/userdir-server/internal/api/grpc/router"
	httpctx "github.com/dtroode/userdir-server/internal/api/http/context"
	httprouter "github.com/dtroode/userdir-server/internal/api/http/router"
	"github.com/dtroode/userdir-server/internal/config"
	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
	"github.com/dtroode/userdir-server/internal/notify"
	"github.com/dtroode/userdir-server/internal/server"
	"github.com/dtroode/userdir-server/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer closeStore()
	logger.Info("storage initialized", "backend", cfg.Storage.Backend)

	sink, sinkClosers, err := openSinks(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize notifier", "error", err)
	}
	dispatcher := notify.NewDispatcher(sink, logger, cfg.Notifier.Timeout, cfg.Notifier.QueueSize, cfg.Notifier.Workers)
	logger.Info("notifier initialized", "sinks", cfg.Notifier.Sinks)

	userService := service.NewUser(store, dispatcher, logger)
	dashboardService := service.NewDashboard(store, logger, cfg.Dashboard.TrendDays, cfg.Dashboard.RecentLimit)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpSrv := server.NewHTTPServer(
		httprouter.New(userService, dashboardService, registry, httpctx.NewManager(), logger).Register(),
		fmt.Sprintf(":%s", cfg.HTTP.Port),
		server.HTTPTimeouts{Read: cfg.HTTP.ReadTimeout, Write: cfg.HTTP.WriteTimeout, Idle: cfg.HTTP.IdleTimeout},
	)

	healthServer := grpchealth.NewServer()
	probe := healthprobe.NewProbe(store, healthServer, logger, cfg.GRPC.HealthCheckInterval)
	go probe.Run(ctx)

	grpcSrv := server.NewGRPCServer(
		grpcrouter.New(healthServer, logger).Register(),
		fmt.Sprintf(":%s", cfg.GRPC.Port),
	)

	var wg sync.WaitGroup
	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}()
	}
	start(httpSrv, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName))
	start(grpcSrv, server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName))

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	healthServer.Shutdown()

	for _, s := range []model.Server{httpSrv, grpcSrv} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	// handlers are done, so no more events can be queued
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("notifier did not drain before shutdown deadline", "error", err)
	}
	for _, c := range sinkClosers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close notifier sink", "error", err)
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
