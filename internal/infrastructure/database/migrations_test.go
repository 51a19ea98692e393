package database

import (
	"context"
	"embed"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"
)

//go:embed testdata/*.sql
var testdataFS embed.FS

func testMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(testdataFS, "testdata")
	if err != nil {
		t.Fatalf("fs.Sub() error = %v", err)
	}
	return sub
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	src := testMigrations(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_readings") {
		t.Fatal("table test_readings not created")
	}

	applied, pending, err := db.GetMigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || applied[0].Version != "20261001_090000" {
		t.Errorf("applied = %v, want one 20261001_090000 record", applied)
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	src := testMigrations(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_readings") {
		t.Error("table test_readings should have been dropped")
	}
	applied, _, err := db.GetMigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected 0 applied migrations after rollback, got %d", len(applied))
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrateDown_MissingDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"20261002_100000_one_way.up.sql": {Data: []byte("CREATE TABLE one_way (id INTEGER);")},
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err == nil {
		t.Error("MigrateDown() should fail without down SQL")
	}
}

func TestMigrate_OrderAndFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"20261003_000002_second.up.sql": {Data: []byte("INSERT INTO ordered (id) VALUES (1);")},
		"20261003_000001_first.up.sql":  {Data: []byte("CREATE TABLE ordered (id INTEGER);")},
		"20261003_000003_broken.up.sql": {Data: []byte("THIS IS NOT SQL;")},
		"README.md":                     {Data: []byte("ignored")},
	}

	if err := db.Migrate(ctx, src); err == nil {
		t.Fatal("Migrate() should fail on the broken migration")
	}

	applied, pending, err := db.GetMigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2 (earlier migrations stay committed)", len(applied))
	}
	if len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("pending = %v, want [broken]", pending)
	}
}

func TestMigrate_NilSource(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate(nil) error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{name: "valid up", filename: "20261001_090000_kv_store.up.sql", wantVersion: "20261001_090000", wantIsUp: true, wantOk: true},
		{name: "valid down", filename: "20261001_090000_kv_store.down.sql", wantVersion: "20261001_090000", wantOk: true},
		{name: "not sql file", filename: "readme.txt"},
		{name: "missing direction", filename: "20261001_090000_kv_store.sql"},
		{name: "invalid format", filename: "invalid.up.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && (version != tt.wantVersion || isUp != tt.wantIsUp) {
				t.Errorf("got (%q, %v), want (%q, %v)", version, isUp, tt.wantVersion, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20261001_090000_kv_store.up.sql", "kv_store"},
		{"20261001_090000_kv_store.down.sql", "kv_store"},
		{"20261001_090000_add_expiry_to_kv.up.sql", "add_expiry_to_kv"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
