package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dtroode/userdir-server/internal/config"
	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
	"github.com/dtroode/userdir-server/internal/notify"
	"github.com/dtroode/userdir-server/internal/repository/memory"
	"github.com/dtroode/userdir-server/internal/repository/mongo"
	"github.com/dtroode/userdir-server/internal/repository/postgres"
	storage "github.com/dtroode/userdir-server/internal/storage/minio"
)

// connectTimeout bounds startup dials to external systems.
const connectTimeout = 15 * time.Second

// openStore connects the configured user store backend.
func openStore(ctx context.Context, cfg *config.Config) (model.UserStore, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), func() { _ = db.Close() }, nil

	case config.BackendMongo:
		conn, err := mongo.NewConnection(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		repo, err := mongo.NewUserRepository(ctx, conn, cfg.Mongo.Collection)
		if err != nil {
			_ = conn.Close(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = conn.Close(context.Background()) }, nil

	default:
		return memory.NewUserRepository(), func() {}, nil
	}
}

// openSinks builds the event sinks named in NOTIFIER_SINKS. Sinks that hold
// connections are returned as closers.
func openSinks(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.EventSink, []io.Closer, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		sinks   []model.EventSink
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	for _, name := range cfg.Notifier.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notify.NewLogSink(logger))

		case config.SinkHTTP:
			sinks = append(sinks, notify.NewHTTPSink(&http.Client{}, cfg.LogServiceURL))

		case config.SinkKafka:
			s := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			sinks = append(sinks, s)
			closers = append(closers, s)

		case config.SinkNATS:
			s, err := notify.NewNATSSink(cfg.NATS.URL, cfg.NATS.Subject)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, s)
			closers = append(closers, s)

		case config.SinkAMQP:
			s, err := notify.NewAMQPSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, s)
			closers = append(closers, s)

		case config.SinkArchive:
			client, err := storage.NewClient(ctx, storage.Options{
				Endpoint:  cfg.Archive.Endpoint,
				AccessKey: cfg.Archive.AccessKey,
				SecretKey: cfg.Archive.SecretKey,
				UseSSL:    cfg.Archive.UseSSL,
				Bucket:    cfg.Archive.Bucket,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, notify.NewArchiveSink(client, cfg.Archive.Prefix))

		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown notifier sink %q", name)
		}
	}

	switch len(sinks) {
	case 0:
		return notify.NewLogSink(logger), nil, nil
	case 1:
		return sinks[0], closers, nil
	default:
		return notify.NewMulti(cfg.Notifier.Timeout, sinks...), closers, nil
	}
}
