package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/query/cache"
)

const (
	// DefaultPageSize is the list limit used when none is given.
	DefaultPageSize = 20

	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// Meta carries list metadata. Total is nil when the backend omits it.
type Meta struct {
	Total *int `json:"total,omitempty"`
}

// Page is one page of a table listing.
type Page struct {
	Records []Record `json:"data"`
	Meta    Meta     `json:"meta"`
}

// HasNext reports whether another page likely follows page. Without a
// total, a full page is taken to mean more rows exist.
func (p *Page) HasNext(page, limit int) bool {
	if p.Meta.Total != nil {
		return page*limit < *p.Meta.Total
	}
	return limit > 0 && len(p.Records) == limit
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	out := &Page{Records: make([]Record, len(p.Records))}
	for i, r := range p.Records {
		out.Records[i] = r.Clone()
	}
	if p.Meta.Total != nil {
		total := *p.Meta.Total
		out.Meta.Total = &total
	}
	return out
}

// Ack acknowledges a delete.
type Ack struct {
	OK bool `json:"ok"`
}

type mutationResponse struct {
	OK    *bool  `json:"ok"`
	Data  Record `json:"data"`
	Error string `json:"error"`
}

// ResourceClient performs generic CRUD against table resources. List
// results are cached per (table, page, limit); every successful mutation
// of a table drops all of that table's cached pages. Failed mutations
// leave the cache untouched.
type ResourceClient struct {
	client   *Client
	cache    cache.Cache
	ttl      time.Duration
	resolver IdentifierResolver

	// generations counts invalidations per table. A list response is only
	// cached if no invalidation happened while it was in flight.
	mu          sync.Mutex
	generations map[string]uint64
}

// ResourceOption configures a ResourceClient.
type ResourceOption func(*ResourceClient)

// WithCache replaces the list cache.
func WithCache(c cache.Cache) ResourceOption {
	return func(r *ResourceClient) { r.cache = c }
}

// WithCacheTTL sets how long list pages stay cached.
func WithCacheTTL(d time.Duration) ResourceOption {
	return func(r *ResourceClient) { r.ttl = d }
}

// WithResolver replaces the identifier resolver used by the *Record methods.
func WithResolver(res IdentifierResolver) ResourceOption {
	return func(r *ResourceClient) { r.resolver = res }
}

// NewResourceClient wraps c with resource operations.
func NewResourceClient(c *Client, opts ...ResourceOption) *ResourceClient {
	r := &ResourceClient{
		client:      c,
		ttl:         defaultCacheTTL,
		resolver:    FirstField{},
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewLRUCache(defaultCacheSize, r.ttl)
	}
	return r
}

// Client returns the underlying API client.
func (r *ResourceClient) Client() *Client {
	return r.client
}

// List returns one page of table. Pages start at 1; non-positive page
// and limit fall back to 1 and DefaultPageSize.
func (r *ResourceClient) List(ctx context.Context, table string, page, limit int) (*Page, error) {
	if table == "" {
		return nil, fmt.Errorf("list: table is required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	key := cache.ListKey(table, page, limit)
	if v, ok := r.cache.Get(key); ok {
		event := &RequestEvent{
			Op:       OpList,
			Table:    table,
			Method:   http.MethodGet,
			Path:     "/api/" + table,
			Status:   http.StatusOK,
			CacheHit: true,
		}
		_ = r.client.runWithMiddleware(ctx, event, func() error { return nil })
		return v.(*Page).Clone(), nil
	}

	gen := r.generation(table)
	var out Page
	err := r.client.do(ctx, request{
		op:     OpList,
		table:  table,
		method: http.MethodGet,
		path:   []string{"api", table},
		query: url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(limit)},
		},
	}, &out)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.generations[table] == gen {
		r.cache.Set(key, out.Clone(), r.ttl)
	} else {
		debug.Debug("Skipped caching stale page", "table", table, "page", page)
	}
	r.mu.Unlock()
	return &out, nil
}

func (r *ResourceClient) generation(table string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[table]
}

// Create inserts payload into table and returns the stored record.
func (r *ResourceClient) Create(ctx context.Context, table string, payload Record) (Record, error) {
	return r.mutate(ctx, request{
		op:     OpCreate,
		table:  table,
		method: http.MethodPost,
		path:   []string{"api", table},
		body:   payload,
	})
}

// Update replaces the fields in payload on the record identified by id.
func (r *ResourceClient) Update(ctx context.Context, table, id string, payload Record) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, &MissingIdentifierError{Table: table}
	}
	return r.mutate(ctx, request{
		op:     OpUpdate,
		table:  table,
		method: http.MethodPut,
		path:   []string{"api", table, id},
		body:   payload,
	})
}

// UpdateRecord resolves the identifier of original and updates it.
func (r *ResourceClient) UpdateRecord(ctx context.Context, table string, original, payload Record) (Record, error) {
	id, err := r.resolver.ResolveIdentifier(table, original)
	if err != nil {
		return Record{}, err
	}
	return r.Update(ctx, table, id, payload)
}

// Remove deletes the record identified by id.
func (r *ResourceClient) Remove(ctx context.Context, table, id string) (Ack, error) {
	if strings.TrimSpace(id) == "" {
		return Ack{}, &MissingIdentifierError{Table: table}
	}
	_, err := r.mutate(ctx, request{
		op:     OpRemove,
		table:  table,
		method: http.MethodDelete,
		path:   []string{"api", table, id},
	})
	if err != nil {
		return Ack{}, err
	}
	return Ack{OK: true}, nil
}

// RemoveRecord resolves the identifier of original and deletes it.
func (r *ResourceClient) RemoveRecord(ctx context.Context, table string, original Record) (Ack, error) {
	id, err := r.resolver.ResolveIdentifier(table, original)
	if err != nil {
		return Ack{}, err
	}
	return r.Remove(ctx, table, id)
}

// Invalidate drops every cached page of table.
func (r *ResourceClient) Invalidate(table string) {
	r.mu.Lock()
	r.generations[table]++
	r.mu.Unlock()
	n := cache.InvalidateTable(r.cache, table)
	debug.Debug("List cache invalidated", "table", table, "entries", n)
}

// CacheStats reports list cache statistics.
func (r *ResourceClient) CacheStats() cache.Stats {
	return r.cache.GetStats()
}

func (r *ResourceClient) mutate(ctx context.Context, req request) (Record, error) {
	if req.table == "" {
		return Record{}, fmt.Errorf("%s: table is required", req.op)
	}

	var out mutationResponse
	if err := r.client.do(ctx, req, &out); err != nil {
		return Record{}, err
	}
	if out.OK != nil && !*out.OK {
		msg := out.Error
		if msg == "" {
			msg = "operation not acknowledged"
		}
		return Record{}, &BackendError{Op: req.op, Status: http.StatusOK, Message: msg}
	}

	r.Invalidate(req.table)
	return out.Data, nil
}
