// Package dbtest opens throwaway SQLite databases carrying the civicpulse schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/civicpulse/internal/migration"
	pkgdb "github.com/smallbiznis/civicpulse/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// Open returns an isolated in-memory database with the full schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := pkgdb.StripRowLocks(db); err != nil {
		t.Fatalf("register row lock stripping: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.ApplySQLiteSchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// Node returns a snowflake node for tests.
func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, id snowflake.ID, name string, role string) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO users (id, display_name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, role, now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// SeedReport inserts a report in the given status. Resolution fields are only
// stamped for resolved reports.
func SeedReport(t *testing.T, db *gorm.DB, id, creatorID snowflake.ID, status string, resolvedBy snowflake.ID, resolvedAt time.Time) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	var (
		at any
		by any
	)
	if status == "resolved" {
		at = resolvedAt
		by = resolvedBy
	}
	if err := db.Exec(
		`INSERT INTO reports (id, user_id, title, slug, description, category, status, resolved_at, resolved_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, creatorID, "Broken streetlight", "broken-streetlight", "Dark corner near the market", "infrastructure", status, at, by, now, now,
	).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return id
}
