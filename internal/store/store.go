// Package store persists the delivery history: every article URL and
// (project, round type) pair that has ever gone out. It is the sole
// source of truth for "already delivered".
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sent_articles (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			url     TEXT UNIQUE NOT NULL,
			title   TEXT NOT NULL,
			source  TEXT,
			sent_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sent_rounds (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project    TEXT NOT NULL,
			round_type TEXT,
			amount     REAL,
			source_url TEXT,
			sent_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(project, round_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_sent ON sent_articles(sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_project ON sent_rounds(project)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_sent ON sent_rounds(sent_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// ArticleSent reports whether the URL was delivered in a previous run.
// Pure lookup, never writes.
func (s *Store) ArticleSent(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sent_articles WHERE url = ?`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoundSent reports whether the (project, round type) pair was delivered
// in a previous run. The project is matched lowercased.
func (s *Store) RoundSent(ctx context.Context, project, roundType string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sent_rounds WHERE project = ? AND round_type = ?`,
		strings.ToLower(strings.TrimSpace(project)), roundType).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkArticle records a delivered article. Recording an existing URL is
// a no-op, never an error.
func (s *Store) MarkArticle(ctx context.Context, url, title, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_articles (url, title, source) VALUES (?, ?, ?)`,
		url, title, source)
	return err
}

// MarkRound records a delivered round under its lowercased project key.
func (s *Store) MarkRound(ctx context.Context, project, roundType string, amount *float64, sourceURL string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sent_rounds (project, round_type, amount, source_url) VALUES (?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(project)), roundType, amount, sourceURL)
	return err
}

// Prune deletes history rows older than the given age and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")

	var removed int64
	for _, table := range []string{"sent_articles", "sent_rounds"} {
		res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE sent_at < ?`, table), cutoff)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, err
		}
		removed += n
	}

	return removed, nil
}

// Stats holds history row counts.
type Stats struct {
	Articles int
	Rounds   int
}

// Count returns history sizes for the stats command.
func (s *Store) Count(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sent_articles`).Scan(&st.Articles); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sent_rounds`).Scan(&st.Rounds); err != nil {
		return st, err
	}
	return st, nil
}
