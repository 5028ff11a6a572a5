package history

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one executed query.
type Entry struct {
	ID           int64
	Query        string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowCount     int
	AffectedRows int64
	Success      bool
	ErrorMessage string
}

// Store persists executed queries in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Add appends an entry. A zero ExecutedAt is stamped with the current time.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history
		(query, executed_at, duration_ms, row_count, affected_rows, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Query,
		e.ExecutedAt.UTC(),
		e.Duration.Milliseconds(),
		e.RowCount,
		e.AffectedRows,
		e.Success,
		e.ErrorMessage,
	)
	return err
}

// Recent returns the latest execution of each distinct query, most
// recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, query, executed_at, duration_ms, row_count, affected_rows, success, error_message
		FROM query_history
		WHERE id IN (SELECT MAX(id) FROM query_history GROUP BY query)
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// Search returns executions whose text contains term, most recent first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, query, executed_at, duration_ms, row_count, affected_rows, success, error_message
		FROM query_history
		WHERE query LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+term+"%", limit)
}

// Seed fills r with the store's recent distinct queries.
func (s *Store) Seed(ctx context.Context, r *Recent) error {
	entries, err := s.Recent(ctx, r.limit)
	if err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		r.Add(entries[i].Query)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.ExecutedAt,
			&durationMs,
			&e.RowCount,
			&e.AffectedRows,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
