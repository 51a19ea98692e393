package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// SnapshotVersion is the export format version written by Export.
const SnapshotVersion = 1

// Snapshot is a portable copy of everything the service stores. Absent
// sections are left untouched by Import.
type Snapshot struct {
	Version            int                    `json:"version"`
	ExportedAt         time.Time              `json:"exported_at"`
	Settings           *Settings              `json:"settings,omitempty"`
	LastBroker         *Broker                `json:"last_broker,omitempty"`
	History            []HistoryItem          `json:"history,omitempty"`
	LastRecommendation *health.Recommendation `json:"last_recommendation,omitempty"`
	SensorCache        []CachedReading        `json:"sensor_cache,omitempty"`
}

// Export collects the stored state into a Snapshot.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Version: SnapshotVersion, ExportedAt: s.now().UTC()}

	var settings Settings
	if found, err := s.load(ctx, KeySettings, &settings); err != nil {
		return Snapshot{}, err
	} else if found {
		snap.Settings = &settings
	}

	var broker Broker
	if found, err := s.load(ctx, KeyLastBroker, &broker); err != nil {
		return Snapshot{}, err
	} else if found {
		snap.LastBroker = &broker
	}

	var rec health.Recommendation
	if found, err := s.load(ctx, KeyLastRecommendation, &rec); err != nil {
		return Snapshot{}, err
	} else if found {
		snap.LastRecommendation = &rec
	}

	if _, err := s.load(ctx, KeyHistory, &snap.History); err != nil {
		return Snapshot{}, err
	}
	if _, err := s.load(ctx, KeySensorCache, &snap.SensorCache); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Import writes every section present in snap. Lists longer than the
// configured capacities keep their newest entries. Every section is
// validated and encoded before the first write; if a write fails the keys
// already written are restored to their previous values.
func (s *Service) Import(ctx context.Context, snap Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, snap.Version)
	}
	if snap.Settings != nil {
		if err := snap.Settings.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}
	if snap.LastBroker != nil {
		if err := snap.LastBroker.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}

	staged, err := s.stageImport(snap)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[string][]byte, len(staged))
	for _, e := range staged {
		data, err := s.store.Get(ctx, e.key)
		switch {
		case errors.Is(err, ErrNotFound):
			previous[e.key] = nil
		case err != nil:
			return fmt.Errorf("%s: %w", e.key, err)
		default:
			previous[e.key] = data
		}
	}

	for i, e := range staged {
		if err := s.store.Set(ctx, e.key, e.data); err != nil {
			s.rollback(ctx, staged[:i], previous)
			return fmt.Errorf("%s: %w", e.key, err)
		}
	}
	return nil
}

type stagedValue struct {
	key  string
	data []byte
}

// stageImport encodes the sections present in snap in write order.
func (s *Service) stageImport(snap Snapshot) ([]stagedValue, error) {
	var staged []stagedValue
	add := func(key string, v any) error {
		data, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		staged = append(staged, stagedValue{key: key, data: data})
		return nil
	}

	if snap.Settings != nil {
		if err := add(KeySettings, *snap.Settings); err != nil {
			return nil, err
		}
	}
	if snap.LastBroker != nil {
		if err := add(KeyLastBroker, *snap.LastBroker); err != nil {
			return nil, err
		}
	}
	if snap.LastRecommendation != nil {
		if err := add(KeyLastRecommendation, *snap.LastRecommendation); err != nil {
			return nil, err
		}
	}
	if snap.History != nil {
		items := snap.History
		if len(items) > s.historyN {
			items = items[:s.historyN]
		}
		if err := add(KeyHistory, items); err != nil {
			return nil, err
		}
	}
	if snap.SensorCache != nil {
		cached := snap.SensorCache
		if len(cached) > s.sensorN {
			cached = cached[:s.sensorN]
		}
		if err := add(KeySensorCache, cached); err != nil {
			return nil, err
		}
	}
	return staged, nil
}

// rollback restores written keys to their values before an import. Restore
// failures are ignored; the import error is already being returned.
func (s *Service) rollback(ctx context.Context, written []stagedValue, previous map[string][]byte) {
	for _, e := range written {
		if old := previous[e.key]; old != nil {
			_ = s.store.Set(ctx, e.key, old)
		} else {
			_ = s.store.Delete(ctx, e.key)
		}
	}
}

// WriteSnapshot encodes snap as indented JSON.
func WriteSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ReadSnapshot decodes a JSON snapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return Snapshot{}, fmt.Errorf("%w: empty input", ErrInvalidSnapshot)
		}
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return snap, nil
}
