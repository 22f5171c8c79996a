// Package storage persists the transaction mirror, category and budget
// configuration, bill ledgers and account balances in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cashflow/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dates are stored as ISO 8601 text so that lexicographic comparison in SQL
// matches chronological order.

func dateToDB(d core.Date) string {
	return d.String()
}

func dateFromDB(s string) (core.Date, error) {
	return core.ParseDate(s)
}

// timestampLayout is fixed width so that string comparison in SQL matches
// chronological order; RFC3339Nano trims trailing zeros and breaks that.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func timeToDB(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func timeFromDB(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToDB(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
