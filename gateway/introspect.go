package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlstudio/catalog"
)

// Introspect reads every user table with its columns in ordinal order
// and its primary key.
func (d *Database) Introspect(ctx context.Context) (*catalog.Catalog, error) {
	switch d.provider {
	case "sqlite":
		return d.introspectSQLite(ctx)
	case "mysql":
		return d.introspectColumns(ctx, mysqlColumnsQuery, mysqlPrimaryKeysQuery)
	case "postgres":
		return d.introspectColumns(ctx, postgresColumnsQuery, postgresPrimaryKeysQuery)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", d.provider)
	}
}

func (d *Database) introspectSQLite(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cat := catalog.New()
	for _, name := range names {
		t, err := d.sqliteTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}
		cat.Put(t)
	}
	return cat, nil
}

func (d *Database) sqliteTable(ctx context.Context, name string) (catalog.Table, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", d.quote(name))
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return catalog.Table{}, err
	}
	defer rows.Close()

	t := catalog.Table{Name: name}
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			return catalog.Table{}, err
		}
		t.Columns = append(t.Columns, colName)
		// pk is the 1-based position within the key; composite keys
		// resolve to their first column.
		if pk == 1 {
			t.PrimaryKey = colName
		}
	}
	return t, rows.Err()
}

const mysqlColumnsQuery = `
	SELECT c.TABLE_NAME, c.COLUMN_NAME
	FROM information_schema.COLUMNS c
	JOIN information_schema.TABLES t
	  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
	WHERE c.TABLE_SCHEMA = DATABASE() AND t.TABLE_TYPE = 'BASE TABLE'
	ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION
`

const mysqlPrimaryKeysQuery = `
	SELECT TABLE_NAME, COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = DATABASE() AND CONSTRAINT_NAME = 'PRIMARY'
	ORDER BY TABLE_NAME, ORDINAL_POSITION
`

const postgresColumnsQuery = `
	SELECT c.table_name, c.column_name
	FROM information_schema.columns c
	JOIN information_schema.tables t
	  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
	WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
	ORDER BY c.table_name, c.ordinal_position
`

const postgresPrimaryKeysQuery = `
	SELECT kcu.table_name, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON tc.constraint_name = kcu.constraint_name
	  AND tc.table_schema = kcu.table_schema
	WHERE tc.table_schema = 'public' AND tc.constraint_type = 'PRIMARY KEY'
	ORDER BY kcu.table_name, kcu.ordinal_position
`

// introspectColumns builds a catalog from two (table, column) listings:
// every column, then primary key columns.
func (d *Database) introspectColumns(ctx context.Context, columnsQuery, keysQuery string) (*catalog.Catalog, error) {
	var order []string
	tables := make(map[string]*catalog.Table)

	err := scanPairs(ctx, d.db, columnsQuery, func(table, column string) {
		t, ok := tables[table]
		if !ok {
			t = &catalog.Table{Name: table}
			tables[table] = t
			order = append(order, table)
		}
		t.Columns = append(t.Columns, column)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}

	err = scanPairs(ctx, d.db, keysQuery, func(table, column string) {
		if t, ok := tables[table]; ok && t.PrimaryKey == "" {
			t.PrimaryKey = column
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}

	cat := catalog.New()
	for _, name := range order {
		cat.Put(*tables[name])
	}
	return cat, nil
}

func scanPairs(ctx context.Context, db *sql.DB, query string, fn func(a, b string)) error {
	rows, err := db.QueryContext(ctx, strings.TrimSpace(query))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}
