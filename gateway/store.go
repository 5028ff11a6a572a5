package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/sqlstudio/catalog"
	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

var (
	// ErrUnknownTable is returned for a table the database does not have.
	ErrUnknownTable = errors.New("unknown table")

	// ErrNotFound is returned when no row matches the identifier.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyPayload is returned for a write without fields.
	ErrEmptyPayload = errors.New("empty payload")
)

// UnknownColumnError reports a payload field the table does not have.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q in table %q", e.Column, e.Table)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store performs generic row operations against introspected tables.
type Store struct {
	db *Database

	mu      sync.RWMutex
	catalog *catalog.Catalog
}

// NewStore creates a store. The catalog is loaded lazily.
func NewStore(db *Database) *Store {
	return &Store{db: db}
}

// Database returns the underlying database.
func (s *Store) Database() *Database {
	return s.db
}

// Refresh re-reads the schema.
func (s *Store) Refresh(ctx context.Context) error {
	cat, err := s.db.Introspect(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
	debug.Debug("Schema refreshed", "provider", s.db.Provider(), "tables", cat.Len())
	return nil
}

// Catalog returns the current schema, loading it on first use.
func (s *Store) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()
	if cat != nil {
		return cat, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, nil
}

// Table looks up a table, refreshing the schema once on a miss so
// tables created through Execute become visible.
func (s *Store) Table(ctx context.Context, name string) (catalog.Table, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return catalog.Table{}, err
	}
	if t, ok := cat.Table(name); ok {
		return t, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return catalog.Table{}, err
	}
	cat, _ = s.Catalog(ctx)
	if t, ok := cat.Table(name); ok {
		return t, nil
	}
	return catalog.Table{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

// keyColumn is the primary key, or the first column when there is none.
func keyColumn(t catalog.Table) string {
	if t.PrimaryKey != "" {
		return t.PrimaryKey
	}
	if len(t.Columns) > 0 {
		return t.Columns[0]
	}
	return ""
}

// List returns one page of rows and the table's row count. Pages are
// 1-based.
func (s *Store) List(ctx context.Context, table string, page, limit int) ([]client.Record, int, error) {
	t, err := s.Table(ctx, table)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}

	b := sq.Select("*").
		From(s.db.quote(t.Name)).
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		PlaceholderFormat(s.db.placeholder())
	if key := keyColumn(t); key != "" {
		b = b.OrderBy(s.db.quote(key))
	}
	records, err := s.query(ctx, s.db.db, b)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := sq.Select("COUNT(*)").
		From(s.db.quote(t.Name)).
		PlaceholderFormat(s.db.placeholder()).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return records, total, nil
}

// Create inserts a row and returns it as stored when it can be read
// back, otherwise the payload itself.
func (s *Store) Create(ctx context.Context, table string, rec client.Record) (client.Record, error) {
	t, err := s.Table(ctx, table)
	if err != nil {
		return client.Record{}, err
	}
	cols, vals, err := s.columns(t, rec)
	if err != nil {
		return client.Record{}, err
	}

	b := sq.Insert(s.db.quote(t.Name)).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(s.db.placeholder())

	key := keyColumn(t)
	out := rec.Clone()
	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if s.db.Provider() == "postgres" {
			records, err := s.query(ctx, tx, b.Suffix("RETURNING *"))
			if err != nil {
				return err
			}
			if len(records) > 0 {
				out = records[0]
			}
			return nil
		}

		query, args, err := b.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		var lookup interface{}
		if v, ok := rec.Get(key); ok && v != nil {
			lookup = dbValue(v)
		} else if id, err := res.LastInsertId(); err == nil && key != "" {
			lookup = id
		}
		if lookup == nil {
			return nil
		}
		found, err := s.fetch(ctx, tx, t, key, lookup)
		if err != nil {
			return err
		}
		if found != nil {
			out = *found
		}
		return nil
	})
	if err != nil {
		return client.Record{}, err
	}
	return out, nil
}

// Update changes the row whose key column equals id.
func (s *Store) Update(ctx context.Context, table, id string, rec client.Record) (client.Record, error) {
	t, err := s.Table(ctx, table)
	if err != nil {
		return client.Record{}, err
	}
	cols, vals, err := s.columns(t, rec)
	if err != nil {
		return client.Record{}, err
	}
	key := keyColumn(t)

	set := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		set[c] = vals[i]
	}
	b := sq.Update(s.db.quote(t.Name)).
		SetMap(set).
		Where(sq.Eq{s.db.quote(key): id}).
		PlaceholderFormat(s.db.placeholder())

	out := rec.Clone()
	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query, args, err := b.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Some drivers count changed rather than matched rows.
			existing, err := s.fetch(ctx, tx, t, key, id)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("%w: %s %s=%s", ErrNotFound, t.Name, key, id)
			}
		}

		var lookup interface{} = id
		if v, ok := rec.Get(key); ok && v != nil {
			lookup = dbValue(v)
		}
		found, err := s.fetch(ctx, tx, t, key, lookup)
		if err != nil {
			return err
		}
		if found != nil {
			out = *found
		}
		return nil
	})
	if err != nil {
		return client.Record{}, err
	}
	return out, nil
}

// Delete removes the row whose key column equals id.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	t, err := s.Table(ctx, table)
	if err != nil {
		return err
	}
	key := keyColumn(t)
	if key == "" {
		return fmt.Errorf("%w: %s has no columns", ErrNotFound, t.Name)
	}

	query, args, err := sq.Delete(s.db.quote(t.Name)).
		Where(sq.Eq{s.db.quote(key): id}).
		PlaceholderFormat(s.db.placeholder()).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s=%s", ErrNotFound, t.Name, key, id)
	}
	return nil
}

// Result is the outcome of a raw statement.
type Result struct {
	QueryType    string
	ReturnsRows  bool
	Rows         []client.Record
	AffectedRows int64
}

// Execute runs a raw statement. Row-returning statements are read in
// full; others report the affected row count.
func (s *Store) Execute(ctx context.Context, query string, args []interface{}) (*Result, error) {
	queryType, returnsRows := Classify(query)
	if queryType == "" {
		return nil, client.ErrEmptyQuery
	}
	for i, a := range args {
		args[i] = dbValue(a)
	}

	res := &Result{QueryType: queryType, ReturnsRows: returnsRows}
	if returnsRows {
		rows, err := s.db.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		res.Rows, err = scanRecords(rows)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	out, err := s.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, err := out.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	switch queryType {
	case "CREATE", "DROP", "ALTER", "RENAME":
		s.mu.Lock()
		s.catalog = nil
		s.mu.Unlock()
	}
	return res, nil
}

// columns validates rec against t and returns quoted column names with
// their values in field order.
func (s *Store) columns(t catalog.Table, rec client.Record) ([]string, []interface{}, error) {
	if rec.Len() == 0 {
		return nil, nil, ErrEmptyPayload
	}
	cols := make([]string, 0, rec.Len())
	vals := make([]interface{}, 0, rec.Len())
	for _, f := range rec.Fields() {
		if !t.HasColumn(f.Name) {
			return nil, nil, &UnknownColumnError{Table: t.Name, Column: f.Name}
		}
		cols = append(cols, s.db.quote(f.Name))
		vals = append(vals, dbValue(f.Value))
	}
	return cols, vals, nil
}

func (s *Store) query(ctx context.Context, q querier, b sq.Sqlizer) ([]client.Record, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) fetch(ctx context.Context, q querier, t catalog.Table, key string, value interface{}) (*client.Record, error) {
	b := sq.Select("*").
		From(s.db.quote(t.Name)).
		Where(sq.Eq{s.db.quote(key): value}).
		Limit(1).
		PlaceholderFormat(s.db.placeholder())
	records, err := s.query(ctx, q, b)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// dbValue converts decoded JSON values into driver arguments. Numbers
// keep their integer form when they have one; objects and arrays are
// stored as JSON text.
func dbValue(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]interface{}, []interface{}, client.Record:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return v
	}
}
