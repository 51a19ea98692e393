// Package database provides SQLite connectivity for the health monitor's
// local storage backend.
//
// This package manages:
//   - Database connection with WAL mode
//   - Schema migrations read from an fs.FS (see package migrations)
//   - Health checks and lifecycle
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Each migration file has both .up.sql and .down.sql. Migrations are
// additive: new columns must be NULLABLE or carry a DEFAULT.
package database
