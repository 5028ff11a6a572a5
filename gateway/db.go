// Package gateway serves a SQL database over the HTTP contract the
// resource client speaks: table metadata, paged CRUD and raw query
// execution.
package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/sqlstudio/query/sqlgen"
)

// Database is a connection pool bound to a provider.
type Database struct {
	db       *sql.DB
	provider string
	dialect  sqlgen.Dialect
}

// Open connects to a database of the given provider.
func Open(provider, dsn string) (*Database, error) {
	driverName := DriverName(provider)
	if driverName == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	if driverName == "mysql" {
		var err error
		if dsn, err = MySQLDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite3" {
		// One writer at a time; also keeps ":memory:" databases alive
		// on a single connection.
		db.SetMaxOpenConns(1)
	}
	return NewDatabase(provider, db), nil
}

// MySQLDSN enables clientFoundRows so an UPDATE that rewrites identical
// values still reports the matched row as affected.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// NewDatabase wraps an existing pool.
func NewDatabase(provider string, db *sql.DB) *Database {
	provider = normalizeProvider(provider)
	return &Database{
		db:       db,
		provider: provider,
		dialect:  sqlgen.DialectFor(provider),
	}
}

// DriverName maps provider names to Go database driver names.
func DriverName(provider string) string {
	switch normalizeProvider(provider) {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite":
		return "sqlite3"
	default:
		return ""
	}
}

func normalizeProvider(provider string) string {
	switch p := strings.ToLower(strings.TrimSpace(provider)); p {
	case "postgresql":
		return "postgres"
	case "sqlite3":
		return "sqlite"
	default:
		return p
	}
}

// Provider returns the normalized provider name.
func (d *Database) Provider() string {
	return d.provider
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the pool.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) quote(name string) string {
	return d.dialect.QuoteIdentifier(name)
}

func (d *Database) placeholder() sq.PlaceholderFormat {
	if d.provider == "postgres" {
		return sq.Dollar
	}
	return sq.Question
}

// TxFunc runs inside a transaction.
type TxFunc func(tx *sql.Tx) error

// Transaction runs fn in a transaction, committing when it returns nil
// and rolling back on error or panic.
func (d *Database) Transaction(ctx context.Context, fn TxFunc) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
