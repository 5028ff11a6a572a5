package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// fakeAPI serves the table resource endpoints from memory and counts
// requests per method and path.
type fakeAPI struct {
	mu       sync.Mutex
	rows     map[string][]map[string]any
	calls    map[string]int
	failNext int
	version  int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{
		rows: map[string][]map[string]any{
			"Run":   {{"RunID": 1, "Status": "ok"}, {"RunID": 2, "Status": "failed"}},
			"Agent": {{"AgentID": 1, "Name": "bot"}},
		},
		calls: map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) count(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[key]
}

func (a *fakeAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	table := parts[0]
	a.calls[r.Method+" "+table]++

	w.Header().Set("Content-Type", "application/json")
	if a.failNext > 0 {
		a.failNext--
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "constraint failed", "details": "NOT NULL"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": a.rows[table],
			"meta": map[string]any{"total": len(a.rows[table]), "version": a.version},
		})
	case http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.rows[table] = append(a.rows[table], body)
		a.version++
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": body})
	case http.MethodPut:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.version++
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": body})
	case http.MethodDelete:
		if parts[1] == "missing" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "no such row"})
			return
		}
		a.version++
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func newResourceClient(t *testing.T, url string) *client.ResourceClient {
	c, err := client.New(url)
	require.NoError(t, err)
	return client.NewResourceClient(c)
}

func TestListCachesPages(t *testing.T) {
	api, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	page, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, []string{"RunID", "Status"}, page.Records[0].Keys())
	require.NotNil(t, page.Meta.Total)
	assert.Equal(t, 2, *page.Meta.Total)

	_, err = rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET Run"), "second read is served from cache")

	_, err = rc.List(ctx, "Run", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET Run"), "different page is a different key")

	stats := rc.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestListReturnsIndependentCopies(t *testing.T) {
	_, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	page, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	page.Records[0].Set("Status", "mutated")

	again, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	v, _ := again.Records[0].Get("Status")
	assert.Equal(t, "ok", v)
}

func TestCreateInvalidatesEveryPageOfTable(t *testing.T) {
	api, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	for _, p := range []int{1, 2, 3} {
		_, err := rc.List(ctx, "Run", p, 20)
		require.NoError(t, err)
	}
	_, err := rc.List(ctx, "Agent", 1, 20)
	require.NoError(t, err)

	created, err := rc.Create(ctx, "Run", client.RecordOf("RunID", 3, "Status", "queued"))
	require.NoError(t, err)
	v, _ := created.Get("Status")
	assert.Equal(t, "queued", v)

	for _, p := range []int{1, 2, 3} {
		page, err := rc.List(ctx, "Run", p, 20)
		require.NoError(t, err)
		assert.Len(t, page.Records, 3, "page %d must not be pre-mutation data", p)
	}
	assert.Equal(t, 6, api.count("GET Run"))

	_, err = rc.List(ctx, "Agent", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET Agent"), "other tables stay cached")
}

func TestUpdateAndRemoveInvalidate(t *testing.T) {
	api, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	_, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)

	_, err = rc.UpdateRecord(ctx, "Run", client.RecordOf("RunID", 1, "Status", "ok"), client.RecordOf("Status", "done"))
	require.NoError(t, err)
	_, err = rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET Run"))

	ack, err := rc.Remove(ctx, "Run", "1")
	require.NoError(t, err)
	assert.True(t, ack.OK)
	_, err = rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, api.count("GET Run"))
}

func TestFailedMutationKeepsCache(t *testing.T) {
	api, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	_, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)

	api.mu.Lock()
	api.failNext = 1
	api.mu.Unlock()

	_, err = rc.Create(ctx, "Run", client.RecordOf("Status", nil))
	require.Error(t, err)
	assert.True(t, client.IsBackendError(err))

	var be *client.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadRequest, be.Status)
	assert.Equal(t, "constraint failed", be.Message)
	assert.Equal(t, "NOT NULL", be.Details)

	_, err = rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET Run"), "cache survives a failed mutation")
}

func TestNotAcknowledgedIsBackendError(t *testing.T) {
	_, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)

	_, err := rc.Remove(context.Background(), "Run", "missing")
	require.Error(t, err)
	assert.True(t, client.IsBackendError(err))
	assert.Contains(t, err.Error(), "no such row")
}

func TestMissingIdentifierSendsNothing(t *testing.T) {
	api, srv := newFakeAPI(t)
	rc := newResourceClient(t, srv.URL)
	ctx := context.Background()

	_, err := rc.UpdateRecord(ctx, "Run", client.RecordOf("RunID", "", "Status", "ok"), client.RecordOf("Status", "x"))
	require.Error(t, err)
	assert.True(t, client.IsMissingIdentifier(err))

	_, err = rc.RemoveRecord(ctx, "Run", client.RecordOf("RunID", nil))
	assert.True(t, client.IsMissingIdentifier(err))

	_, err = rc.Update(ctx, "Run", " ", client.RecordOf("Status", "x"))
	assert.True(t, client.IsMissingIdentifier(err))

	_, err = rc.Remove(ctx, "Run", "")
	assert.True(t, client.IsMissingIdentifier(err))

	assert.Equal(t, 0, api.total())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rc := newResourceClient(t, url)
	_, err := rc.List(context.Background(), "Run", 1, 20)
	require.Error(t, err)
	assert.True(t, client.IsTransportError(err))
	assert.False(t, client.IsBackendError(err))
}

func TestListDefaults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	rc := newResourceClient(t, srv.URL)
	page, err := rc.List(context.Background(), "Run", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "limit=20&page=1", gotQuery)
	assert.Nil(t, page.Meta.Total)

	_, err = rc.List(context.Background(), "", 1, 1)
	assert.Error(t, err)
}

func TestPageHasNext(t *testing.T) {
	full := &client.Page{Records: make([]client.Record, 20)}
	assert.True(t, full.HasNext(1, 20))

	short := &client.Page{Records: make([]client.Record, 3)}
	assert.False(t, short.HasNext(1, 20))

	total := 45
	withTotal := &client.Page{Records: make([]client.Record, 20), Meta: client.Meta{Total: &total}}
	assert.True(t, withTotal.HasNext(2, 20))
	assert.False(t, withTotal.HasNext(3, 20))
}

func TestEscapedIdentifierPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	rc := newResourceClient(t, srv.URL)
	_, err := rc.Remove(context.Background(), "Run", "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/api/Run/a%2Fb%20c", gotPath)
}

func TestListInFlightDuringMutationIsNotCached(t *testing.T) {
	var (
		mu      sync.Mutex
		rows    = []map[string]any{{"RunID": 1}}
		gets    int
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			mu.Lock()
			gets++
			first := gets == 1
			snapshot := append([]map[string]any(nil), rows...)
			mu.Unlock()
			if first {
				close(entered)
				<-release
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": snapshot})
		case http.MethodPost:
			mu.Lock()
			rows = append(rows, map[string]any{"RunID": 2})
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": map[string]any{"RunID": 2}})
		}
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	rc := client.NewResourceClient(c)
	ctx := context.Background()

	stale := make(chan *client.Page, 1)
	go func() {
		p, err := rc.List(ctx, "Run", 1, 20)
		assert.NoError(t, err)
		stale <- p
	}()

	<-entered
	_, err = rc.Create(ctx, "Run", client.RecordOf("RunID", 2))
	require.NoError(t, err)
	close(release)

	p := <-stale
	require.NotNil(t, p)
	assert.Len(t, p.Records, 1)

	fresh, err := rc.List(ctx, "Run", 1, 20)
	require.NoError(t, err)
	assert.Len(t, fresh.Records, 2)
}

func TestListCacheHitPassesMiddleware(t *testing.T) {
	_, srv := newFakeAPI(t)

	var events []client.RequestEvent
	c, err := client.New(srv.URL, client.WithMiddleware(func(ctx context.Context, ev *client.RequestEvent, next func() error) error {
		err := next()
		events = append(events, *ev)
		return err
	}))
	require.NoError(t, err)
	rc := client.NewResourceClient(c)

	_, err = rc.List(context.Background(), "Run", 1, 20)
	require.NoError(t, err)
	_, err = rc.List(context.Background(), "Run", 1, 20)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.False(t, events[0].CacheHit)
	assert.True(t, events[1].CacheHit)
	assert.Equal(t, client.OpList, events[1].Op)
	assert.Equal(t, "Run", events[1].Table)
}
