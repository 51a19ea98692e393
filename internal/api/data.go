package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

// errInvalidBody marks a PATCH body that is not a settings object.
var errInvalidBody = errors.New("invalid JSON body")

// ============================================================================
// History
// ============================================================================

// handleListHistory returns stored recommendations, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.History(r.Context())
	if err != nil {
		s.logger.Error("reading history failed", "error", err)
		writeInternalError(w, "failed to read history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"count":    len(items),
		"capacity": s.storage.HistoryCapacity(),
	})
}

// handleDeleteHistoryItem removes one history entry.
func (s *Server) handleDeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.storage.DeleteHistoryItem(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeNotFound(w, "history item not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting history item failed", "id", id, "error", err)
		writeInternalError(w, "failed to delete history item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearHistory removes every history entry.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.ClearHistory(r.Context()); err != nil {
		s.logger.Error("clearing history failed", "error", err)
		writeInternalError(w, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStorageInfo lists stored keys and their total size.
func (s *Server) handleStorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.storage.StorageInfo(r.Context())
	if err != nil {
		s.logger.Error("reading storage info failed", "error", err)
		writeInternalError(w, "failed to read storage info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleLastRecommendation returns the most recent recommendation.
func (s *Server) handleLastRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storage.LastRecommendation(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeNotFound(w, "no recommendation received yet")
		return
	}
	if err != nil {
		writeInternalError(w, "failed to read last recommendation")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleSensorCache returns recent sensor readings, newest first.
func (s *Server) handleSensorCache(w http.ResponseWriter, r *http.Request) {
	readings, err := s.storage.SensorCache(r.Context())
	if err != nil {
		writeInternalError(w, "failed to read sensor cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}

// ============================================================================
// Settings
// ============================================================================

// handleGetSettings returns the stored settings merged over the defaults.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.storage.Settings(r.Context())
	if err != nil {
		writeInternalError(w, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleReplaceSettings replaces the stored settings.
func (s *Server) handleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var settings storage.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.storage.SaveSettings(r.Context(), settings); err != nil {
		s.writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePatchSettings merges the given fields into the stored settings.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	settings, err := s.storage.UpdateSettings(r.Context(), func(st *storage.Settings) error {
		if err := json.Unmarshal(body, st); err != nil {
			return fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		return nil
	})
	if err != nil {
		s.writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) writeSettingsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidBody):
		writeBadRequest(w, "invalid JSON body")
	case errors.Is(err, storage.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error("saving settings failed", "error", err)
		writeInternalError(w, "failed to save settings")
	}
}

// ============================================================================
// Data management
// ============================================================================

// handleExport streams a snapshot of all local data as a JSON attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.storage.Export(r.Context())
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeInternalError(w, "failed to export data")
		return
	}
	name := fmt.Sprintf("healthmon-%s.json", snap.ExportedAt.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := storage.WriteSnapshot(w, snap); err != nil {
		s.logger.Warn("writing export response failed", "error", err)
	}
}

// handleImport restores a snapshot produced by /export.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, err := storage.ReadSnapshot(r.Body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.storage.Import(r.Context(), snap); err != nil {
		if errors.Is(err, storage.ErrInvalidSnapshot) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("import failed", "error", err)
		writeInternalError(w, "failed to import data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"imported_at": time.Now().UTC().Format(time.RFC3339),
		"history":     len(snap.History),
	})
}

// handleClearData removes all locally stored data.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.ClearAll(r.Context()); err != nil {
		s.logger.Error("clearing data failed", "error", err)
		writeInternalError(w, "failed to clear data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
