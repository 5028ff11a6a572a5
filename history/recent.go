// Package history keeps the queries an operator has executed: a short
// in-memory list of recent distinct queries and an optional SQLite log.
package history

import (
	"slices"
	"strings"
	"sync"
)

// DefaultLimit is the number of recent queries kept.
const DefaultLimit = 10

// Recent is the last N distinct queries, most recent first. Re-adding a
// query moves it to the front.
type Recent struct {
	mu      sync.Mutex
	limit   int
	queries []string
}

// NewRecent creates a list holding at most limit queries.
func NewRecent(limit int) *Recent {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recent{limit: limit}
}

// Add records query. Blank queries are ignored.
func (r *Recent) Add(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.queries, query); i >= 0 {
		r.queries = slices.Delete(r.queries, i, i+1)
	}
	r.queries = slices.Insert(r.queries, 0, query)
	if len(r.queries) > r.limit {
		r.queries = r.queries[:r.limit]
	}
}

// List returns the queries, most recent first.
func (r *Recent) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.queries)
}

func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func (r *Recent) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = nil
}
