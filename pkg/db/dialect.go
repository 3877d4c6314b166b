package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// NormalizeType maps the configured database type onto a supported backend.
// An empty type selects postgres.
func NormalizeType(raw string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case TypePostgres, "":
		return TypePostgres, nil
	case TypeSQLite:
		return TypeSQLite, nil
	default:
		return "", fmt.Errorf("unsupported %s type", raw)
	}
}

// Dialect builds the gorm dialector. Postgres is the multi-replica backend;
// SQLite serves single-node deployments and local development.
func Dialect(cfg Config) (gorm.Dialector, error) {
	typ, err := NormalizeType(cfg.Type)
	if err != nil {
		return nil, err
	}
	if typ == TypeSQLite {
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			name = "civicpulse.db"
		}
		return sqlite.Open(name), nil
	}
	return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)), nil
}

// StripRowLocks removes FOR UPDATE / FOR SHARE clauses before statements reach
// SQLite, which locks the whole database instead of rows.
func StripRowLocks(conn *gorm.DB) error {
	strip := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if !strings.Contains(sql, "FOR UPDATE") && !strings.Contains(sql, "FOR SHARE") {
			return
		}
		sql = strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
		sql = strings.ReplaceAll(sql, "FOR UPDATE", "")
		sql = strings.ReplaceAll(sql, "FOR SHARE", "")
		d.Statement.SQL.Reset()
		d.Statement.SQL.WriteString(sql)
	}
	if err := conn.Callback().Query().Before("gorm:query").Register("civicpulse:strip_row_locks", strip); err != nil {
		return err
	}
	if err := conn.Callback().Row().Before("gorm:row").Register("civicpulse:strip_row_locks_row", strip); err != nil {
		return err
	}
	return conn.Callback().Raw().Before("gorm:raw").Register("civicpulse:strip_row_locks_raw", strip)
}
