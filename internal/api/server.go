package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/discovery"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/config"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/logging"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SessionController is the part of *session.Session the API drives.
type SessionController interface {
	Connect(ctx context.Context, target session.Target) error
	Disconnect()
	CurrentState() session.State
	Target() (session.Target, bool)
	ReconnectAttempts() int
}

// Scanner is the part of *discovery.Scanner the API drives.
type Scanner interface {
	StartScan(ctx context.Context, onFound func(discovery.Device), onTimeout func()) error
	StopScan()
	Scanning() bool
	Devices() []discovery.Device
}

// HealthChecker is implemented by every component reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Session   SessionController
	Storage   *storage.Service
	Discovery Scanner                  // optional
	Checks    map[string]HealthChecker // optional, keyed by component name
	Hub       *Hub                     // if set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	session   SessionController
	storage   *storage.Service
	discovery Scanner
	checks    map[string]HealthChecker
	version   string

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc

	// scanCtx outlives the request that starts a scan.
	scanMu  sync.Mutex
	scanCtx context.Context
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		session:   deps.Session,
		storage:   deps.Storage,
		discovery: deps.Discovery,
		checks:    deps.Checks,
		version:   deps.Version,
		scanCtx:   context.Background(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.scanMu.Lock()
	s.scanCtx = srvCtx
	s.scanMu.Unlock()

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
