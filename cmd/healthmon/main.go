// Health Monitor client
//
// healthmon connects to the wearable's MQTT broker, records health
// recommendations locally, raises notifications for alerts and urgent
// recommendations, and exposes a control API with a live WebSocket feed.
//
// The broker is taken from the configuration file, the last broker
// connected to, or mDNS discovery, in that order.
//
// Usage:
//
//	healthmon              run the client
//	healthmon token [sub]  print an API bearer token
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/api"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/auth"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/discovery"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/influxdb"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/logging"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/mqtt"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting health monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"storage", cfg.Storage.Backend,
	)

	checks := make(map[string]api.HealthChecker)

	// Local storage
	store, closeStore, err := openStore(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := storage.NewService(store, storage.Options{
		HistoryCapacity: cfg.Storage.HistoryCapacity,
		SensorCacheSize: cfg.Storage.SensorCacheSize,
	})

	if cfg.Storage.RetentionSchedule != "" {
		job, jobErr := storage.NewRetentionJob(svc, cfg.Storage.RetentionSchedule, log)
		if jobErr != nil {
			return fmt.Errorf("scheduling history retention: %w", jobErr)
		}
		job.Start()
		defer job.Stop()
	}

	// Notifications
	notifier, releaseNotifier, err := buildNotifier(cfg.Notifications, svc, os.Stdout, log)
	if err != nil {
		return err
	}
	defer releaseNotifier()

	// Time-series export (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Broker session
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	sess, err := session.New(session.Deps{
		Transport: mqtt.NewTransport(cfg.MQTT, log),
		Policy: session.ReconnectPolicy{
			Delay:       cfg.GetReconnectDelay(),
			MaxAttempts: cfg.Session.Reconnect.MaxAttempts,
			Settings:    svc,
		},
		History:  svc,
		Broker:   svc,
		Notifier: notifier,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		log.Info("disconnecting from broker")
		sess.Disconnect()
	}()
	checks["mqtt"] = sess

	wireConsumers(ctx, sess, svc, influxClient, hub, log)
	unwatch := sess.OnStateChange(func(st session.State) {
		log.Info("session state changed", "state", st.String())
		hub.PublishState(st)
	})
	defer unwatch()

	// Discovery (optional)
	var scanner *discovery.Scanner
	if cfg.Discovery.Enabled {
		scanner = discovery.NewScanner(discovery.NewResolver, discovery.Options{
			ServiceType: cfg.Discovery.ServiceType,
			Domain:      cfg.Discovery.Domain,
			TxtService:  cfg.Discovery.TxtService,
			Timeout:     cfg.GetScanTimeout(),
		}, log)
		defer scanner.StopScan()
	}

	// Control API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log,
			Session: sess,
			Storage: svc,
			Checks:  checks,
			Hub:     hub,
			Version: version,
		}
		if scanner != nil {
			deps.Discovery = scanner
		}
		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if cfg.Session.AutoConnect {
		go autoConnect(ctx, cfg, sess, svc, scanner, log)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, discovery, session,
	// InfluxDB, notifier pool, retention job, storage.
	log.Info("health monitor stopped")
	return nil
}

// runToken prints an API bearer token signed with the configured secret.
// The optional argument names the token subject.
func runToken(args []string, out io.Writer) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is not configured")
	}

	subject := "healthmon-cli"
	if len(args) > 0 && args[0] != "" {
		subject = args[0]
	}
	token, err := auth.GenerateToken(subject, cfg.API.Auth.JWTSecret, cfg.GetTokenTTL())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// getConfigPath returns the configuration file path.
// Uses HEALTHMON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEALTHMON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// autoConnect dials the configured broker, the last broker, or the first
// broker found by discovery. A failed connect leaves the session in the
// error state for the user to retry.
func autoConnect(ctx context.Context, cfg *config.Config, sess *session.Session, svc *storage.Service, scanner *discovery.Scanner, log *logging.Logger) {
	target, ok := startupTarget(ctx, cfg, svc)
	if !ok && scanner != nil {
		target, ok = discoverTarget(ctx, scanner, log)
	}
	if !ok {
		log.Info("no broker known, waiting for a connect request")
		return
	}

	settings, err := svc.Settings(ctx)
	if err != nil {
		log.Warn("reading settings failed, using defaults", "error", err)
	}
	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(settings.ConnectionTimeout)*time.Millisecond)
	defer cancel()

	if err := sess.Connect(connectCtx, target); err != nil && !errors.Is(err, session.ErrAlreadyConnecting) {
		log.Warn("automatic connect failed", "broker", target.String(), "error", err)
	}
}

// startupTarget returns the configured broker or, failing that, the last
// broker connected to.
func startupTarget(ctx context.Context, cfg *config.Config, svc *storage.Service) (session.Target, bool) {
	if cfg.MQTT.Broker.Host != "" {
		return session.Target{Host: cfg.MQTT.Broker.Host, Port: cfg.MQTT.Broker.Port}, true
	}
	last, err := svc.LastBroker(ctx)
	if err != nil {
		return session.Target{}, false
	}
	return session.Target{Host: last.Host, Port: last.Port}, true
}

// discoverTarget runs one scan and returns the first broker found.
func discoverTarget(ctx context.Context, scanner *discovery.Scanner, log *logging.Logger) (session.Target, bool) {
	found := make(chan discovery.Device, 1)
	finished := make(chan struct{})

	err := scanner.StartScan(ctx,
		func(d discovery.Device) {
			select {
			case found <- d:
			default:
			}
		},
		func() { close(finished) },
	)
	if err != nil {
		log.Warn("discovery scan failed", "error", err)
		return session.Target{}, false
	}
	defer scanner.StopScan()

	select {
	case d := <-found:
		log.Info("broker discovered", "name", d.Name, "broker", d.Key())
		return d.Target(), true
	case <-finished:
		return session.Target{}, false
	case <-ctx.Done():
		return session.Target{}, false
	}
}
