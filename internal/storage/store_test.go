package storage

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/infrastructure/database"
	"github.com/gbetibienvenu/HealthMonitorApp/migrations"
)

func openSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteStore(db)
}

// storeBackends returns one fresh instance of every local Store.
func storeBackends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openSQLiteStore(t),
	}
}

func TestStore_Contract(t *testing.T) {
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
			}

			if err := store.Set(ctx, "b", []byte("one")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := store.Set(ctx, "b", []byte("two")); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			if err := store.Set(ctx, "a", []byte{0x00, 0xff}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := store.Get(ctx, "b")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "two" {
				t.Errorf("Get(b) = %q, want %q", got, "two")
			}

			keys, err := store.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			if !slices.Equal(keys, []string{"a", "b"}) {
				t.Errorf("Keys() = %v, want [a b]", keys)
			}

			if err := store.Delete(ctx, "a", "absent"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(a) after Delete error = %v, want ErrNotFound", err)
			}
			if err := store.Delete(ctx); err != nil {
				t.Errorf("Delete() with no keys error = %v", err)
			}
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'x'

	got, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value changed with caller's slice: %q", got)
	}
	got[1] = 'y'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed with returned slice: %q", again)
	}
}
