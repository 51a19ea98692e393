package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// Storage keys.
const (
	KeySettings           = "settings"
	KeyHistory            = "history"
	KeyLastRecommendation = "last_recommendation"
	KeyLastBroker         = "last_broker"
	KeySensorCache        = "sensor_cache"
)

// Default bounds.
const (
	DefaultHistoryCapacity = 100
	DefaultSensorCacheSize = 50
)

var allKeys = []string{KeySettings, KeyHistory, KeyLastRecommendation, KeyLastBroker, KeySensorCache}

// HistoryItem is a stored recommendation.
type HistoryItem struct {
	ID string `json:"id"`
	health.Recommendation
	ReceivedAt time.Time `json:"received_at"`
}

// CachedReading is a stored sensor reading.
type CachedReading struct {
	health.SensorReading
	ReceivedAt time.Time `json:"received_at"`
}

// Options bounds the lists kept by a Service.
type Options struct {
	HistoryCapacity int
	SensorCacheSize int
}

// Service provides typed access to persisted state.
type Service struct {
	store    Store
	historyN int
	sensorN  int
	now      func() time.Time
	newID    func() string

	// mu serialises read-modify-write cycles on list and settings keys.
	mu sync.Mutex
}

// NewService wraps store. Zero options take the defaults.
func NewService(store Store, opts Options) *Service {
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = DefaultHistoryCapacity
	}
	if opts.SensorCacheSize <= 0 {
		opts.SensorCacheSize = DefaultSensorCacheSize
	}
	return &Service{
		store:    store,
		historyN: opts.HistoryCapacity,
		sensorN:  opts.SensorCacheSize,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// HistoryCapacity returns the maximum number of history items kept.
func (s *Service) HistoryCapacity() int { return s.historyN }

// load decodes key into v. found is false when the key is absent.
func (s *Service) load(ctx context.Context, key string, v any) (found bool, err error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decodeValue(data, v); err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return true, nil
}

func (s *Service) save(ctx context.Context, key string, v any) error {
	data, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return s.store.Set(ctx, key, data)
}

// ============================================================================
// Settings
// ============================================================================

// Settings returns the stored settings, or DefaultSettings when none are
// stored. Stored values are merged over the defaults.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()
	if _, err := s.load(ctx, KeySettings, &settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

// SaveSettings validates and replaces the stored settings.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, KeySettings, settings)
}

// UpdateSettings applies fn to the current settings and stores the result.
func (s *Service) UpdateSettings(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSettingsLocked(ctx, fn)
}

func (s *Service) updateSettingsLocked(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := fn(&settings); err != nil {
		return Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.save(ctx, KeySettings, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// AutoReconnectEnabled reports the user's autoReconnect preference. On a
// read error the default is returned with the error.
func (s *Service) AutoReconnectEnabled(ctx context.Context) (bool, error) {
	settings, err := s.Settings(ctx)
	return settings.AutoReconnect, err
}

// NotificationsEnabled reports the user's notification preference.
func (s *Service) NotificationsEnabled(ctx context.Context) (bool, error) {
	settings, err := s.Settings(ctx)
	return settings.NotificationsEnabled, err
}

// ============================================================================
// Broker
// ============================================================================

// SaveLastBroker records the broker and copies it into the settings.
func (s *Service) SaveLastBroker(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, KeyLastBroker, Broker{Host: host, Port: port}); err != nil {
		return err
	}
	_, err := s.updateSettingsLocked(ctx, func(st *Settings) error {
		st.BrokerAddress = host
		st.BrokerPort = port
		st.LastConnectedIP = host
		return nil
	})
	return err
}

// LastBroker returns the last broker connected to, or ErrNotFound.
func (s *Service) LastBroker(ctx context.Context) (Broker, error) {
	var b Broker
	found, err := s.load(ctx, KeyLastBroker, &b)
	if err != nil {
		return Broker{}, err
	}
	if !found {
		return Broker{}, ErrNotFound
	}
	return b, nil
}

// ============================================================================
// History
// ============================================================================

// AppendHistory stores rec as the newest history item, evicting the oldest
// items beyond capacity.
func (s *Service) AppendHistory(ctx context.Context, rec health.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []HistoryItem
	if _, err := s.load(ctx, KeyHistory, &items); err != nil {
		return err
	}

	item := HistoryItem{ID: s.newID(), Recommendation: rec, ReceivedAt: s.now().UTC()}
	items = append([]HistoryItem{item}, items...)
	if len(items) > s.historyN {
		items = items[:s.historyN]
	}
	return s.save(ctx, KeyHistory, items)
}

// History returns stored items, newest first.
func (s *Service) History(ctx context.Context) ([]HistoryItem, error) {
	var items []HistoryItem
	if _, err := s.load(ctx, KeyHistory, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []HistoryItem{}
	}
	return items, nil
}

// DeleteHistoryItem removes one item by id, or returns ErrNotFound.
func (s *Service) DeleteHistoryItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []HistoryItem
	if _, err := s.load(ctx, KeyHistory, &items); err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return ErrNotFound
	}
	return s.save(ctx, KeyHistory, kept)
}

// ClearHistory removes every history item.
func (s *Service) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, KeyHistory)
}

// PruneHistory removes items received before cutoff and returns how many
// were removed.
func (s *Service) PruneHistory(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []HistoryItem
	if _, err := s.load(ctx, KeyHistory, &items); err != nil {
		return 0, err
	}
	kept := items[:0]
	for _, it := range items {
		if !it.ReceivedAt.Before(cutoff) {
			kept = append(kept, it)
		}
	}
	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(ctx, KeyHistory, kept)
}

// ============================================================================
// Last recommendation and sensor cache
// ============================================================================

// SaveLastRecommendation stores rec for offline display.
func (s *Service) SaveLastRecommendation(ctx context.Context, rec health.Recommendation) error {
	return s.save(ctx, KeyLastRecommendation, rec)
}

// LastRecommendation returns the most recent recommendation, or ErrNotFound.
func (s *Service) LastRecommendation(ctx context.Context) (health.Recommendation, error) {
	var rec health.Recommendation
	found, err := s.load(ctx, KeyLastRecommendation, &rec)
	if err != nil {
		return health.Recommendation{}, err
	}
	if !found {
		return health.Recommendation{}, ErrNotFound
	}
	return rec, nil
}

// CacheSensorReading stores r as the newest cached reading.
func (s *Service) CacheSensorReading(ctx context.Context, r health.SensorReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cached []CachedReading
	if _, err := s.load(ctx, KeySensorCache, &cached); err != nil {
		return err
	}
	cached = append([]CachedReading{{SensorReading: r, ReceivedAt: s.now().UTC()}}, cached...)
	if len(cached) > s.sensorN {
		cached = cached[:s.sensorN]
	}
	return s.save(ctx, KeySensorCache, cached)
}

// SensorCache returns cached readings, newest first.
func (s *Service) SensorCache(ctx context.Context) ([]CachedReading, error) {
	var cached []CachedReading
	if _, err := s.load(ctx, KeySensorCache, &cached); err != nil {
		return nil, err
	}
	if cached == nil {
		cached = []CachedReading{}
	}
	return cached, nil
}

// ClearAll removes every key the service owns.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, allKeys...)
}

// StorageInfo describes what the backend currently holds.
type StorageInfo struct {
	Keys  []string `json:"keys"`
	Bytes int      `json:"bytes"`
}

// StorageInfo lists stored keys and the total size of their encoded values.
// Keys removed while the listing runs are skipped.
func (s *Service) StorageInfo(ctx context.Context) (StorageInfo, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return StorageInfo{}, fmt.Errorf("listing keys: %w", err)
	}
	info := StorageInfo{Keys: make([]string, 0, len(keys))}
	for _, k := range keys {
		data, err := s.store.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return StorageInfo{}, fmt.Errorf("%s: %w", k, err)
		}
		info.Keys = append(info.Keys, k)
		info.Bytes += len(data)
	}
	return info, nil
}
