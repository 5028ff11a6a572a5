package client

import (
	"context"
	"net/http"

	"github.com/satishbabariya/sqlstudio/catalog"
)

// Health is the gateway health report.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ListTables fetches the table names exposed by the backend.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var out struct {
		Tables []string `json:"tables"`
	}
	err := c.do(ctx, request{
		op:     OpTables,
		method: http.MethodGet,
		path:   []string{"api", "meta", "tables"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Tables, nil
}

// TableSchema fetches the columns and primary key of a table.
func (c *Client) TableSchema(ctx context.Context, table string) (catalog.Table, error) {
	var out struct {
		Columns    []string `json:"columns"`
		PrimaryKey string   `json:"primaryKey"`
	}
	err := c.do(ctx, request{
		op:     OpSchema,
		table:  table,
		method: http.MethodGet,
		path:   []string{"api", "meta", "tables", table, "columns"},
	}, &out)
	if err != nil {
		return catalog.Table{}, err
	}
	return catalog.Table{Name: table, Columns: out.Columns, PrimaryKey: out.PrimaryKey}, nil
}

// Health checks that the backend is reachable and reports its version.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, request{
		op:     OpHealth,
		method: http.MethodGet,
		path:   []string{"healthz"},
	}, &out)
	return out, err
}
