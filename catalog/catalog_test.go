package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/catalog"
)

func TestDefault(t *testing.T) {
	c := catalog.Default()
	assert.Equal(t, []string{
		"User", "Project", "Agent", "Run", "RunStep", "RunMetric", "Artifact", "Dataset", "Environment",
	}, c.Tables())
	assert.Equal(t, []string{"RunID", "Status", "time", "notes", "Parent_RunID", "AgentID"}, c.Columns("Run"))
	assert.Equal(t, "RunID", c.Columns("Environment")[6])
	assert.Empty(t, c.PrimaryKey("Run"))
	assert.Nil(t, c.Columns("Missing"))
}

func TestPutReplacesInPlace(t *testing.T) {
	c := catalog.New(catalog.Table{Name: "A"}, catalog.Table{Name: "B"})
	c.Put(catalog.Table{Name: "A", Columns: []string{"id"}, PrimaryKey: "id"})

	assert.Equal(t, []string{"A", "B"}, c.Tables())
	tbl, ok := c.Table("A")
	require.True(t, ok)
	assert.True(t, tbl.HasColumn("id"))
	assert.Equal(t, "id", c.PrimaryKey("A"))
	assert.Equal(t, 2, c.Len())
}

func TestLoadAndSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "catalog.yaml", []byte(`
tables:
  - name: Run
    primaryKey: RunID
    columns: [RunID, Status]
  - name: Agent
    columns: [AgentID]
`), 0o644))

	c, err := catalog.Load(fs, "catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Run", "Agent"}, c.Tables())
	assert.Equal(t, "RunID", c.PrimaryKey("Run"))

	require.NoError(t, c.Save(fs, "copy.yaml"))
	again, err := catalog.Load(fs, "copy.yaml")
	require.NoError(t, err)
	assert.Equal(t, c.Tables(), again.Tables())
	assert.Equal(t, c.Columns("Run"), again.Columns("Run"))
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := catalog.Load(fs, "missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("tables:\n  - columns: [a]\n"), 0o644))
	_, err = catalog.Load(fs, "bad.yaml")
	assert.ErrorContains(t, err, "has no name")
}

type fakeSource struct {
	tables  []string
	listErr error
	schemas map[string]catalog.Table
	fetched []string
}

func (f *fakeSource) ListTables(ctx context.Context) ([]string, error) {
	return f.tables, f.listErr
}

func (f *fakeSource) TableSchema(ctx context.Context, table string) (catalog.Table, error) {
	f.fetched = append(f.fetched, table)
	t, ok := f.schemas[table]
	if !ok {
		return catalog.Table{}, errors.New("not found")
	}
	return t, nil
}

func TestDiscover(t *testing.T) {
	src := &fakeSource{
		tables: []string{"Run", "Agent", "Invoice", "Ghost"},
		schemas: map[string]catalog.Table{
			"Run":     {Columns: []string{"RunID", "Status", "time"}, PrimaryKey: "RunID"},
			"Invoice": {Columns: []string{"InvoiceID", "Amount"}, PrimaryKey: "InvoiceID"},
		},
	}

	c, err := catalog.Discover(context.Background(), src, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"Run", "Agent", "Invoice", "Ghost"}, c.Tables())
	assert.Equal(t, []string{"RunID", "Status", "time"}, c.Columns("Run"))
	assert.Equal(t, "RunID", c.PrimaryKey("Run"))
	assert.Equal(t, catalog.Default().Columns("Agent"), c.Columns("Agent"))
	assert.Equal(t, "InvoiceID", c.PrimaryKey("Invoice"))
	assert.Empty(t, c.Columns("Ghost"))
	assert.Equal(t, []string{"Run", "Agent", "Invoice", "Ghost"}, src.fetched)
}

func TestDiscoverKeepsKnownColumnsForEmptySchema(t *testing.T) {
	src := &fakeSource{
		tables:  []string{"Run"},
		schemas: map[string]catalog.Table{"Run": {PrimaryKey: "RunID"}},
	}

	c, err := catalog.Discover(context.Background(), src, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Columns("Run"), c.Columns("Run"))
	assert.Equal(t, "RunID", c.PrimaryKey("Run"))
}

func TestDiscoverFallsBack(t *testing.T) {
	src := &fakeSource{listErr: errors.New("unreachable")}
	fallback := catalog.Default()

	c, err := catalog.Discover(context.Background(), src, fallback)
	assert.Error(t, err)
	assert.Same(t, fallback, c)
}
