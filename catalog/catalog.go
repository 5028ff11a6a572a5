// Package catalog holds the table and column vocabulary offered by the
// query builder.
package catalog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// Table describes one table. PrimaryKey is empty when unknown.
type Table struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	PrimaryKey string   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
}

// HasColumn reports whether the table declares column.
func (t Table) HasColumn(column string) bool {
	return slices.Contains(t.Columns, column)
}

// Catalog is an ordered, concurrency-safe set of tables.
type Catalog struct {
	mu     sync.RWMutex
	tables []Table
	index  map[string]int
}

// New creates a catalog from tables, keeping their order.
func New(tables ...Table) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	for _, t := range tables {
		c.put(t)
	}
	return c
}

// Put adds or replaces a table.
func (c *Catalog) Put(t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(t)
}

func (c *Catalog) put(t Table) {
	t.Columns = slices.Clone(t.Columns)
	if i, ok := c.index[t.Name]; ok {
		c.tables[i] = t
		return
	}
	c.index[t.Name] = len(c.tables)
	c.tables = append(c.tables, t)
}

// Tables returns table names in catalog order.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		names = append(names, t.Name)
	}
	return names
}

// Table looks up a table by name.
func (c *Catalog) Table(name string) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[name]
	if !ok {
		return Table{}, false
	}
	t := c.tables[i]
	t.Columns = slices.Clone(t.Columns)
	return t, true
}

// Columns returns the columns of a table, or nil when unknown.
func (c *Catalog) Columns(name string) []string {
	t, _ := c.Table(name)
	return t.Columns
}

// PrimaryKey returns the declared primary key of a table, if any.
func (c *Catalog) PrimaryKey(name string) string {
	t, _ := c.Table(name)
	return t.PrimaryKey
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

type file struct {
	Tables []Table `yaml:"tables"`
}

// Load reads a catalog file:
//
//	tables:
//	  - name: Run
//	    primaryKey: RunID
//	    columns: [RunID, AgentID, Status]
func Load(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	for i, t := range f.Tables {
		if t.Name == "" {
			return nil, fmt.Errorf("invalid catalog %s: table %d has no name", path, i+1)
		}
	}
	return New(f.Tables...), nil
}

// Save writes the catalog as YAML.
func (c *Catalog) Save(fs afero.Fs, path string) error {
	c.mu.RLock()
	f := file{Tables: slices.Clone(c.tables)}
	c.mu.RUnlock()

	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
