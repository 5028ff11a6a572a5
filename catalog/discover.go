package catalog

import (
	"context"
	"fmt"

	"github.com/satishbabariya/sqlstudio/internal/debug"
)

// Source fetches schema information from a backend.
type Source interface {
	ListTables(ctx context.Context) ([]string, error)
	TableSchema(ctx context.Context, table string) (Table, error)
}

// Discover builds a catalog from the tables the source reports. Every
// table's schema is fetched from the source; fallback only supplies the
// columns of a table whose schema cannot be fetched or comes back empty.
// When the table list itself cannot be fetched, fallback is returned
// together with the error.
func Discover(ctx context.Context, src Source, fallback *Catalog) (*Catalog, error) {
	if fallback == nil {
		fallback = New()
	}

	names, err := src.ListTables(ctx)
	if err != nil {
		return fallback, fmt.Errorf("failed to list tables: %w", err)
	}

	out := New()
	for _, name := range names {
		known, hasKnown := fallback.Table(name)
		t, err := src.TableSchema(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return fallback, ctx.Err()
			}
			debug.Debug("Table schema unavailable", "table", name, "error", err)
			if !hasKnown {
				known = Table{Name: name}
			}
			out.Put(known)
			continue
		}
		t.Name = name
		if len(t.Columns) == 0 && hasKnown {
			t.Columns = known.Columns
		}
		out.Put(t)
	}
	return out, nil
}
