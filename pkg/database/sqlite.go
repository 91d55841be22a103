package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path        string // file path, or ":memory:"
	BusyTimeout time.Duration
}

// DSN returns the modernc.org/sqlite connection string
func (c *SQLiteConfig) DSN() string {
	p := c.Path
	if p != ":memory:" {
		p = filepath.Clean(p)
	}
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		p, busy.Milliseconds())
}

// OpenSQLite opens and pings a SQLite database. The pool is limited to one
// connection: SQLite has a single writer and ":memory:" is per connection.
func OpenSQLite(ctx context.Context, cfg *SQLiteConfig) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}
