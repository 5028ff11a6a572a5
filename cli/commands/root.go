// Package commands implements the sqlstudio CLI commands.
package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/catalog"
	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/cli/internal/version"
	"github.com/satishbabariya/sqlstudio/history"
	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/query/cache"
	"github.com/satishbabariya/sqlstudio/runtime/client"
	"github.com/satishbabariya/sqlstudio/telemetry"
)

// app carries the state shared by every command of one invocation.
type app struct {
	configFile string
	apiURL     string
	debug      bool

	cfg       *config.Config
	collector *telemetry.Collector

	mu        sync.Mutex
	client    *client.Client
	resources *client.ResourceClient
	catalog   *catalog.Catalog
	history   *history.Store
	recent    *history.Recent
}

// slowRequest is the duration above which gateway calls are logged.
const slowRequest = time.Second

// NewRootCommand creates the sqlstudio command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "sqlstudio",
		Short: "Compose SQL and browse tables through a SQL gateway",
		Long: `sqlstudio composes SELECT statements from structured input, runs
SQL through an execution gateway, and browses and edits table rows
through the gateway's resource API.`,
		Version:           version.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.init() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default ./sqlstudio.yaml or ~/.config/sqlstudio/sqlstudio.yaml)")
	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Gateway base URL (overrides api_url)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newTablesCommand(a))
	cmd.AddCommand(newRowsCommand(a))
	cmd.AddCommand(newQueryCommand(a))
	cmd.AddCommand(newExecCommand(a))
	cmd.AddCommand(newHistoryCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newVersionCommand(a))
	return cmd
}

// Execute is the main entry point for the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

func (a *app) init() error {
	cfg, err := config.Load(config.AppFs, a.configFile)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	debug.Init(cfg.Debug)
	a.collector = telemetry.Init(telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Version:  version.Version,
	})
	debug.Debug("Configuration loaded", "api_url", cfg.APIURL, "telemetry", a.collector.Enabled())
	return nil
}

func (a *app) close() {
	telemetry.Shutdown()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.history != nil {
		_ = a.history.Close()
	}
}

// Client returns the gateway client.
func (a *app) Client() (*client.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	opts := []client.Option{
		client.WithTimeout(a.cfg.Timeout),
		client.WithUserAgent(version.Get().UserAgent()),
	}
	opts = append(opts, client.WithMiddleware(client.ErrorMiddleware(func(ev *client.RequestEvent, err error) {
		if client.IsTransportError(err) {
			debug.Warn("Gateway unreachable", "url", a.cfg.APIURL, "op", ev.Op)
		}
	})))
	if debug.Enabled() {
		opts = append(opts, client.WithMiddleware(
			client.LoggingMiddleware(debug.Logger()),
			client.TimingMiddleware(func(op client.Operation, table string, d time.Duration) {
				if d > slowRequest {
					debug.Warn("Slow gateway request", "op", op, "table", table, "duration", d)
				}
			}),
		))
	}
	if a.collector.Enabled() {
		opts = append(opts, client.WithMiddleware(a.collector.Middleware()))
	}

	c, err := client.New(a.cfg.APIURL, opts...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// Catalog returns the schema catalog: the configured catalog file or the
// built-in default, merged with what the gateway reports.
func (a *app) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	a.mu.Lock()
	cat := a.catalog
	a.mu.Unlock()
	if cat != nil {
		return cat, nil
	}

	base := catalog.Default()
	if a.cfg.Catalog.Path != "" {
		loaded, err := catalog.Load(config.AppFs, a.cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		base = loaded
	}

	c, err := a.Client()
	if err != nil {
		return nil, err
	}
	cat, err = catalog.Discover(ctx, c, base)
	if err != nil {
		debug.Warn("Using local catalog", "error", err)
	}

	a.mu.Lock()
	a.catalog = cat
	a.mu.Unlock()
	return cat, nil
}

// Resources returns the cached resource client. Identifiers resolve
// through the catalog's primary keys when known.
func (a *app) Resources(ctx context.Context) (*client.ResourceClient, error) {
	c, err := a.Client()
	if err != nil {
		return nil, err
	}
	cat, err := a.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resources == nil {
		a.resources = client.NewResourceClient(c,
			client.WithCache(cache.NewLRUCache(a.cfg.Cache.Size, a.cfg.Cache.TTL)),
			client.WithCacheTTL(a.cfg.Cache.TTL),
			client.WithResolver(client.CatalogKey{Catalog: cat}),
		)
	}
	return a.resources, nil
}

// History returns the persistent history store, or nil when it cannot
// be opened.
func (a *app) History() *history.Store {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.history != nil {
		return a.history
	}
	path := a.cfg.History.Path
	if path == "" {
		return nil
	}
	if err := config.AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		debug.Warn("History unavailable", "path", path, "error", err)
		return nil
	}
	store, err := history.NewStore(path)
	if err != nil {
		debug.Warn("History unavailable", "path", path, "error", err)
		return nil
	}
	a.history = store
	return store
}

// Recent returns the recent distinct queries, seeded from the history
// store on first use.
func (a *app) Recent(ctx context.Context) *history.Recent {
	store := a.History()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recent != nil {
		return a.recent
	}
	a.recent = history.NewRecent(a.cfg.History.Limit)
	if store != nil {
		if err := store.Seed(ctx, a.recent); err != nil {
			debug.Warn("Failed to load recent queries", "error", err)
		}
	}
	return a.recent
}

// record appends an execution to the recent list and the history store.
func (a *app) record(ctx context.Context, query string, start time.Time, res *client.ExecResult, execErr error) {
	a.Recent(ctx).Add(query)
	store := a.History()
	if store == nil {
		return
	}
	e := history.Entry{
		Query:      query,
		ExecutedAt: start,
		Duration:   time.Since(start),
		Success:    execErr == nil,
	}
	if execErr != nil {
		e.ErrorMessage = execErr.Error()
	}
	if res != nil {
		e.RowCount = res.RowCount
		e.AffectedRows = res.AffectedRows
	}
	if err := store.Add(ctx, e); err != nil {
		debug.Warn("Failed to record history", "error", err)
	}
}
