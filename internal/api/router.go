package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the aggregate /health probe.
const healthCheckTimeout = 5 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Everything else requires a token when auth is configured.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/connect", s.handleConnect)
				r.Post("/disconnect", s.handleDisconnect)
			})

			r.Route("/discovery", func(r chi.Router) {
				r.Get("/", s.handleListDiscovered)
				r.Post("/scan", s.handleStartScan)
				r.Delete("/scan", s.handleStopScan)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.handleListHistory)
				r.Delete("/", s.handleClearHistory)
				r.Delete("/{id}", s.handleDeleteHistoryItem)
			})

			r.Get("/recommendation/last", s.handleLastRecommendation)
			r.Get("/sensors/cache", s.handleSensorCache)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", s.handleGetSettings)
				r.Put("/", s.handleReplaceSettings)
				r.Patch("/", s.handlePatchSettings)
			})

			r.Get("/storage", s.handleStorageInfo)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Delete("/data", s.handleClearData)

			r.Get(wsPath(s.wsCfg.Path), s.handleWebSocket)
		})
	})

	return r
}

func wsPath(p string) string {
	if p == "" {
		return "/ws"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

// handleHealth runs every registered health check and reports 503 when
// any of them fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"session":    s.session.CurrentState().String(),
		"components": components,
	})
}
