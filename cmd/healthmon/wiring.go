package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/api"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/database"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/influxdb"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/logging"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/redis"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/notify"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
	"github.com/gbetibienvenu/HealthMonitorApp/migrations"
)

// openStore opens the configured key-value backend and registers its
// health check. The returned func closes it.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		log.Info("using in-memory storage; data is lost on exit")
		return storage.NewMemoryStore(), func() {}, nil

	case "redis":
		store := redis.New(redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err := store.Ping(ctx); err != nil {
			store.Close() //nolint:errcheck // Already failing
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		checks["redis"] = store
		log.Info("redis connected", "addr", cfg.Redis.Addr)
		return store, func() {
			log.Info("closing redis")
			if err := store.Close(); err != nil {
				log.Error("error closing redis", "error", err)
			}
		}, nil

	default:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			db.Close() //nolint:errcheck // Already failing
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		checks["database"] = db
		log.Info("database connected", "path", cfg.Database.Path)
		return storage.NewSQLiteStore(db), func() {
			log.Info("closing database")
			if err := db.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}, nil
	}
}

// buildNotifier assembles console output behind the user's notification
// preference and a bounded worker pool. It returns a nil Notifier when
// console notifications are off.
func buildNotifier(cfg config.NotificationsConfig, prefs notify.PreferenceReader, out io.Writer, log *logging.Logger) (session.Notifier, func(), error) {
	if !cfg.Console {
		return nil, func() {}, nil
	}

	console := notify.NewConsole(out, notify.ConsoleOptions{})
	filtered := notify.NewPreferenceFilter(console, prefs, log)
	async, err := notify.NewAsync(filtered, cfg.PoolSize, log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating notification pool: %w", err)
	}
	return async, async.Release, nil
}

// wireConsumers registers one fan-out list per message category so the
// sensor cache, time-series export and WebSocket feed all observe the
// same stream.
func wireConsumers(ctx context.Context, sess *session.Session, svc *storage.Service, influx *influxdb.Client, hub *api.Hub, log *logging.Logger) {
	recommendations := session.NewListeners[health.Recommendation]("recommendations", log)
	recommendations.Add(hub.PublishRecommendation)
	sess.Register(session.RecommendationHandler(recommendations.Emit))

	sensors := session.NewListeners[health.SensorReading]("sensors", log)
	sensors.Add(func(r health.SensorReading) {
		if err := svc.CacheSensorReading(ctx, r); err != nil {
			log.Warn("caching sensor reading failed", "error", err)
		}
	})
	sensors.Add(hub.PublishSensors)
	if influx != nil {
		sensors.Add(influx.WriteSensorReading)
	}
	sess.Register(session.SensorHandler(sensors.Emit))

	statuses := session.NewListeners[health.StatusUpdate]("status", log)
	statuses.Add(func(u health.StatusUpdate) {
		log.Debug("status update", "priority", u.Priority)
	})
	statuses.Add(hub.PublishStatus)
	if influx != nil {
		statuses.Add(influx.WriteStatus)
	}
	sess.Register(session.StatusHandler(statuses.Emit))

	alerts := session.NewListeners[health.Alert]("alerts", log)
	alerts.Add(hub.PublishAlert)
	if influx != nil {
		alerts.Add(influx.WriteAlert)
	}
	sess.Register(session.AlertHandler(alerts.Emit))
}
