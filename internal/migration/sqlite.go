package migration

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		display_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_banned BOOLEAN NOT NULL DEFAULT FALSE,
		total_points INTEGER NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_active_date DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'resolved', 'closed')),
		latitude REAL,
		longitude REAL,
		area_name TEXT,
		photo_url TEXT,
		follower_count INTEGER NOT NULL DEFAULT 0,
		is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
		comments_locked BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at DATETIME,
		resolved_by INTEGER,
		stalled_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CHECK ((resolved_at IS NULL) = (resolved_by IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS confirmations (
		id INTEGER PRIMARY KEY,
		report_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		vote TEXT NOT NULL CHECK (vote IN ('confirmed', 'not_yet')),
		created_at DATETIME NOT NULL,
		UNIQUE (report_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS point_events (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		report_id INTEGER,
		action TEXT NOT NULL,
		points INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		tier TEXT NOT NULL,
		awarded_at DATETIME NOT NULL,
		UNIQUE (user_id, type, tier)
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id INTEGER PRIMARY KEY,
		report_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (report_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY,
		report_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flags (
		id INTEGER PRIMARY KEY,
		report_id INTEGER,
		comment_id INTEGER,
		user_id INTEGER NOT NULL,
		reason TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		report_id INTEGER,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		read_at DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS domain_events (
		id INTEGER PRIMARY KEY,
		event_key TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		report_id INTEGER,
		actor_id INTEGER,
		payload TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		request_id TEXT,
		created_at DATETIME NOT NULL
	)`,
}

// ApplySQLiteSchema creates the single-node SQLite schema. Statements are
// idempotent, so it runs on every boot.
func ApplySQLiteSchema(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	for _, stmt := range sqliteSchema {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
