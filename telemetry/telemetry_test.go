package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

type sink struct {
	mu      sync.Mutex
	batches [][]Event
	agent   string
}

func newSink(t *testing.T) (*sink, *httptest.Server) {
	s := &sink{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Events []Event `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.batches = append(s.batches, body.Events)
		s.agent = r.Header.Get("User-Agent")
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *sink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func TestDisabledCollectorDropsEvents(t *testing.T) {
	tc := NewCollector(Config{})
	tc.Record(Event{EventType: "request"})
	assert.False(t, tc.Enabled())
	assert.Zero(t, tc.Pending())
	require.NoError(t, tc.Shutdown(context.Background()))
}

func TestFlushSendsBatch(t *testing.T) {
	s, srv := newSink(t)
	tc := NewCollector(Config{Enabled: true, Endpoint: srv.URL, Version: "0.3.0", BatchSize: 100, FlushInterval: time.Hour})
	defer tc.Shutdown(context.Background())

	tc.RecordRequest(&client.RequestEvent{Op: client.OpList, Table: "Run", Status: 200, Duration: 25 * time.Millisecond, End: time.Now()})
	tc.RecordRequest(&client.RequestEvent{Op: client.OpRemove, Table: "Run", Status: 404, Error: errors.New("not found")})
	assert.Equal(t, 2, tc.Pending())

	require.NoError(t, tc.Flush(context.Background()))
	assert.Zero(t, tc.Pending())

	events := s.events()
	require.Len(t, events, 2)
	assert.Equal(t, "list", events[0].Operation)
	assert.Equal(t, "Run", events[0].Table)
	assert.Equal(t, int64(25), events[0].DurationMs)
	assert.Equal(t, "0.3.0", events[0].Version)
	assert.NotEmpty(t, events[0].OS)
	assert.Equal(t, "not found", events[1].Error)
	assert.Equal(t, "sqlstudio/0.3.0", s.agent)
}

func TestFullBatchFlushesAsynchronously(t *testing.T) {
	s, srv := newSink(t)
	tc := NewCollector(Config{Enabled: true, Endpoint: srv.URL, BatchSize: 2, FlushInterval: time.Hour})
	defer tc.Shutdown(context.Background())

	tc.Record(Event{EventType: "request", Operation: "list"})
	tc.Record(Event{EventType: "request", Operation: "create"})

	assert.Eventually(t, func() bool { return len(s.events()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownFlushesRemaining(t *testing.T) {
	s, srv := newSink(t)
	tc := NewCollector(Config{Enabled: true, Endpoint: srv.URL, BatchSize: 10, FlushInterval: time.Hour})

	tc.Record(Event{EventType: "request", Operation: "execute"})
	require.NoError(t, tc.Shutdown(context.Background()))
	require.Len(t, s.events(), 1)

	// idempotent
	require.NoError(t, tc.Shutdown(context.Background()))
}

func TestMiddlewareRecordsClientCalls(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tables":["Run"]}`))
	}))
	defer api.Close()

	tc := NewCollector(Config{Enabled: true, BatchSize: 100, FlushInterval: time.Hour})
	defer tc.Shutdown(context.Background())

	c, err := client.New(api.URL, client.WithMiddleware(tc.Middleware()))
	require.NoError(t, err)

	tables, err := c.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Run"}, tables)
	assert.Equal(t, 1, tc.Pending())

	// no endpoint: batches go to the debug logger
	require.NoError(t, tc.Flush(context.Background()))
	assert.Zero(t, tc.Pending())
}

func TestEndpointErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tc := NewCollector(Config{Enabled: true, Endpoint: srv.URL, BatchSize: 100, FlushInterval: time.Hour})
	defer tc.Shutdown(context.Background())

	tc.Record(Event{EventType: "request"})
	assert.Error(t, tc.Flush(context.Background()))
}

func TestCachedListIsRecorded(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"RunID":1}]}`))
	}))
	defer api.Close()
	s, srv := newSink(t)

	tc := NewCollector(Config{Enabled: true, Endpoint: srv.URL, BatchSize: 100, FlushInterval: time.Hour})
	defer tc.Shutdown(context.Background())

	c, err := client.New(api.URL, client.WithMiddleware(tc.Middleware()))
	require.NoError(t, err)
	rc := client.NewResourceClient(c)
	for i := 0; i < 2; i++ {
		_, err = rc.List(context.Background(), "Run", 1, 20)
		require.NoError(t, err)
	}

	require.NoError(t, tc.Flush(context.Background()))
	events := s.events()
	require.Len(t, events, 2)
	assert.False(t, events[0].CacheHit)
	assert.True(t, events[1].CacheHit)
	assert.Equal(t, "list", events[1].Operation)
	assert.Equal(t, "Run", events[1].Table)
}
