package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

// newTestStore connects to a local Redis, skipping when none is running.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(Config{KeyPrefix: fmt.Sprintf("healthmon-test-%d:", time.Now().UnixNano())})
	if err := s.Ping(context.Background()); err != nil {
		s.Close() //nolint:errcheck // Test cleanup
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		if keys, err := s.Keys(ctx); err == nil {
			_ = s.Delete(ctx, keys...)
		}
		s.Close() //nolint:errcheck // Test cleanup
	})
	return s
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	defer s.Close() //nolint:errcheck // Test cleanup

	if s.keyPrefix != defaultKeyPrefix {
		t.Errorf("keyPrefix = %q, want %q", s.keyPrefix, defaultKeyPrefix)
	}
	if got := s.key("settings"); got != "healthmon:settings" {
		t.Errorf("key() = %q, want %q", got, "healthmon:settings")
	}
}

func TestStore_Contract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want storage.ErrNotFound", err)
	}
	if err := s.Set(ctx, "b", []byte("two")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "a", []byte{0x00, 0xff}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "b")
	if err != nil || string(got) != "two" {
		t.Errorf("Get(b) = %q, %v", got, err)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(a) after Delete error = %v", err)
	}
}

func TestStore_WithService(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	svc := storage.NewService(s, storage.Options{HistoryCapacity: 2})

	if err := svc.SaveLastBroker(ctx, "10.0.0.2", 1883); err != nil {
		t.Fatalf("SaveLastBroker() error = %v", err)
	}
	b, err := svc.LastBroker(ctx)
	if err != nil || b.Host != "10.0.0.2" {
		t.Errorf("LastBroker() = %+v, %v", b, err)
	}
}
