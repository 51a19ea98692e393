package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/discovery"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/session"
	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

// sessionResponse is the JSON view of the broker session.
type sessionResponse struct {
	State             string          `json:"state"`
	Target            *session.Target `json:"target,omitempty"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
}

// subscribeAllowance covers the subscription pass that follows the broker
// handshake: four topics, each waiting up to ten seconds for a SUBACK.
const subscribeAllowance = 45 * time.Second

// connectRequest is the body of POST /session/connect. An empty body
// reconnects to the last broker.
type connectRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (s *Server) sessionView() sessionResponse {
	resp := sessionResponse{
		State:             s.session.CurrentState().String(),
		ReconnectAttempts: s.session.ReconnectAttempts(),
	}
	if t, ok := s.session.Target(); ok {
		resp.Target = &t
	}
	return resp
}

// handleGetSession returns the current session state.
func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionView())
}

// handleConnect dials a broker and blocks until the handshake completes
// or the user's connection timeout elapses.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	target := session.Target{Host: req.Host, Port: req.Port}
	if target.Host == "" {
		last, err := s.storage.LastBroker(r.Context())
		if errors.Is(err, storage.ErrNotFound) {
			writeBadRequest(w, "host is required: no previous broker recorded")
			return
		}
		if err != nil {
			writeInternalError(w, "failed to read last broker")
			return
		}
		target = session.Target{Host: last.Host, Port: last.Port}
	}
	if target.Port == 0 {
		target.Port = discovery.DefaultPort
	}

	settings, err := s.storage.Settings(r.Context())
	if err != nil {
		s.logger.Warn("reading settings for connect timeout failed", "error", err)
	}
	timeout := time.Duration(settings.ConnectionTimeout) * time.Millisecond
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	// Connect can outlast the server's write timeout.
	deadline := time.Now().Add(timeout + subscribeAllowance)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		s.logger.Debug("extending connect write deadline failed", "error", err)
	}

	s.logger.Info("connect requested",
		"broker", target.String(),
		"subject", r.Context().Value(ctxKeySubject),
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	err = s.session.Connect(ctx, target)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.sessionView())
	case errors.Is(err, session.ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, session.ErrAlreadyConnecting):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	}
}

// handleDisconnect closes the session.
func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.session.Disconnect()
	writeJSON(w, http.StatusOK, s.sessionView())
}

// ============================================================================
// Discovery
// ============================================================================

func (s *Server) requireDiscovery(w http.ResponseWriter) bool {
	if s.discovery == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "discovery is disabled")
		return false
	}
	return true
}

// handleListDiscovered returns the brokers found by the current or last scan.
func (s *Server) handleListDiscovered(w http.ResponseWriter, _ *http.Request) {
	if !s.requireDiscovery(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scanning": s.discovery.Scanning(),
		"devices":  s.discovery.Devices(),
	})
}

// handleStartScan begins an mDNS scan. Found brokers are broadcast on the
// discovery channel.
func (s *Server) handleStartScan(w http.ResponseWriter, _ *http.Request) {
	if !s.requireDiscovery(w) {
		return
	}

	s.scanMu.Lock()
	ctx := s.scanCtx
	s.scanMu.Unlock()

	err := s.discovery.StartScan(ctx,
		func(d discovery.Device) {
			s.hub.Broadcast(ChannelDiscovery, d)
		},
		func() {
			s.logger.Info("discovery scan finished", "devices", len(s.discovery.Devices()))
		},
	)
	if errors.Is(err, discovery.ErrScanInProgress) {
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	}
	if err != nil {
		writeInternalError(w, "failed to start discovery scan")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"scanning": true})
}

// handleStopScan cancels a running scan.
func (s *Server) handleStopScan(w http.ResponseWriter, _ *http.Request) {
	if !s.requireDiscovery(w) {
		return
	}
	s.discovery.StopScan()
	w.WriteHeader(http.StatusNoContent)
}
