// Package testdb gives each test its own migrated SQLite database.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    // use tdb.DB; the file is removed with t.TempDir()
//	}
//
// The database is opened through database.Connect, so it has the same foreign key and
// case-sensitive LIKE settings as a server started with DB_DRIVER=sqlite.
package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trentd187/hockey-league/internal/config"
	"github.com/trentd187/hockey-league/internal/database"
)

// TestDB wraps an isolated database for one test.
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// New creates a fresh database file under t.TempDir() and migrates every model.
func New(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hockey.db")
	db, err := database.Connect(config.DriverSQLite, path, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("testdb: connect: %v", err)
	}
	if err := database.Migrate(db, config.DriverSQLite, "", path); err != nil {
		t.Fatalf("testdb: migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &TestDB{DB: db, t: t}
}

// Context returns a context that is cancelled when the test ends or after 30 seconds.
func (tdb *TestDB) Context() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// Create inserts each value and fails the test on error.
func (tdb *TestDB) Create(values ...any) {
	tdb.t.Helper()
	for _, v := range values {
		if err := tdb.DB.Create(v).Error; err != nil {
			tdb.t.Fatalf("testdb: create %T: %v", v, err)
		}
	}
}
