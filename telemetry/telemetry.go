// Package telemetry provides opt-in collection of client operation
// metrics for sqlstudio.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// Event is one recorded operation.
type Event struct {
	EventType    string    `json:"event_type"`
	Operation    string    `json:"operation,omitempty"`
	Table        string    `json:"table,omitempty"`
	Status       int       `json:"status,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CacheHit     bool      `json:"cache_hit,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	OS           string    `json:"os"`
	Architecture string    `json:"architecture"`
}

// Config configures a Collector.
type Config struct {
	Enabled bool
	// Endpoint receives batches as POST {"events": [...]}. When empty,
	// batches go to the debug logger.
	Endpoint      string
	Version       string
	BatchSize     int
	FlushInterval time.Duration
	HTTPClient    *http.Client
}

// Collector buffers events and flushes them in batches.
type Collector struct {
	cfg        Config
	enabled    bool
	httpClient *http.Client

	mu     sync.Mutex
	events []Event

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCollector creates a collector. An enabled collector flushes in the
// background until Shutdown.
func NewCollector(cfg Config) *Collector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	tc := &Collector{
		cfg:        cfg,
		enabled:    cfg.Enabled && !isTelemetryDisabled(),
		httpClient: cfg.HTTPClient,
		events:     make([]Event, 0, cfg.BatchSize),
		stopChan:   make(chan struct{}),
	}
	if tc.httpClient == nil {
		tc.httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if tc.enabled {
		tc.startBackgroundFlush()
	}
	return tc
}

// Enabled reports whether events are being collected.
func (tc *Collector) Enabled() bool {
	return tc != nil && tc.enabled
}

// Record buffers an event, flushing asynchronously once a batch is full.
func (tc *Collector) Record(e Event) {
	if !tc.Enabled() {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Version = tc.cfg.Version
	e.OS = runtime.GOOS
	e.Architecture = runtime.GOARCH

	tc.mu.Lock()
	tc.events = append(tc.events, e)
	full := len(tc.events) >= tc.cfg.BatchSize
	tc.mu.Unlock()

	if full {
		go func() { _ = tc.Flush(context.Background()) }()
	}
}

// RecordRequest records a finished client request.
func (tc *Collector) RecordRequest(ev *client.RequestEvent) {
	e := Event{
		EventType:  "request",
		Operation:  string(ev.Op),
		Table:      ev.Table,
		Status:     ev.Status,
		DurationMs: ev.Duration.Milliseconds(),
		CacheHit:   ev.CacheHit,
		Timestamp:  ev.End,
	}
	if ev.Error != nil {
		e.Error = ev.Error.Error()
	}
	tc.Record(e)
}

// Middleware returns a client middleware feeding this collector.
func (tc *Collector) Middleware() client.Middleware {
	return func(ctx context.Context, event *client.RequestEvent, next func() error) error {
		err := next()
		tc.RecordRequest(event)
		return err
	}
}

// Pending returns the number of buffered events.
func (tc *Collector) Pending() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.events)
}

// Flush sends buffered events now.
func (tc *Collector) Flush(ctx context.Context) error {
	tc.mu.Lock()
	if len(tc.events) == 0 {
		tc.mu.Unlock()
		return nil
	}
	events := make([]Event, len(tc.events))
	copy(events, tc.events)
	tc.events = tc.events[:0]
	tc.mu.Unlock()

	return tc.send(ctx, events)
}

func (tc *Collector) send(ctx context.Context, events []Event) error {
	if tc.cfg.Endpoint == "" {
		for _, e := range events {
			debug.Info("Telemetry event",
				"operation", e.Operation,
				"table", e.Table,
				"status", e.Status,
				"duration_ms", e.DurationMs,
				"error", e.Error,
			)
		}
		return nil
	}

	jsonData, err := json.Marshal(map[string]interface{}{"events": events})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.cfg.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("sqlstudio/%s", tc.cfg.Version))

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		debug.Debug("Telemetry flush failed", "error", err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (tc *Collector) startBackgroundFlush() {
	tc.wg.Add(1)
	go func() {
		defer tc.wg.Done()
		ticker := time.NewTicker(tc.cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = tc.Flush(context.Background())
			case <-tc.stopChan:
				return
			}
		}
	}()
}

// Shutdown stops background flushing and sends what remains.
func (tc *Collector) Shutdown(ctx context.Context) error {
	if tc == nil {
		return nil
	}
	tc.stopOnce.Do(func() { close(tc.stopChan) })
	tc.wg.Wait()
	if !tc.enabled {
		return nil
	}
	return tc.Flush(ctx)
}

var (
	globalCollector *Collector
	once            sync.Once
)

// Init creates the process-wide collector. Later calls are no-ops.
func Init(cfg Config) *Collector {
	once.Do(func() {
		globalCollector = NewCollector(cfg)
	})
	return globalCollector
}

// Default returns the process-wide collector, or nil before Init.
func Default() *Collector {
	return globalCollector
}

// Shutdown flushes the process-wide collector.
func Shutdown() {
	if globalCollector == nil {
		return
	}
	_ = globalCollector.Shutdown(context.Background())
}

// IsEnabled returns whether the process-wide collector is collecting.
func IsEnabled() bool {
	return globalCollector.Enabled()
}

// isTelemetryDisabled checks the opt-out environment variable.
func isTelemetryDisabled() bool {
	v := os.Getenv("SQLSTUDIO_TELEMETRY_DISABLED")
	return v == "1" || v == "true"
}
