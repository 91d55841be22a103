package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store on SQLite for local development and tests.
// The *sql.DB must be limited to one open connection so transactions
// serialize instead of failing with SQLITE_BUSY.
type SQLiteStore struct {
	db   *sql.DB
	q    sqlQuerier
	inTx bool
}

// NewSQLiteStore creates a new SQLiteStore
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, q: db}
}

func (s *SQLiteStore) Users() UserRepository {
	return &SQLiteUserRepository{q: s.q}
}

func (s *SQLiteStore) Newsletters() NewsletterRepository {
	return &SQLiteNewsletterRepository{q: s.q}
}

func (s *SQLiteStore) Issues() IssueRepository {
	return &SQLiteIssueRepository{q: s.q}
}

func (s *SQLiteStore) Sponsorships() SponsorshipRepository {
	return &SQLiteSponsorshipRepository{q: s.q}
}

// RunInTx runs fn inside a transaction
func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&SQLiteStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isSQLiteUniqueViolation reports a UNIQUE failure naming column, e.g. "confirmed_sponsorships.issue_id"
func isSQLiteUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		default:
			return false
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		(column == "" || strings.Contains(message, column))
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// sqlScanner is satisfied by *sql.Row and *sql.Rows
type sqlScanner interface {
	Scan(dest ...any) error
}

var _ Store = (*SQLiteStore)(nil)
