package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

const (
	defaultPageSize = client.DefaultPageSize
	maxPageSize     = 1000
)

// Server exposes a Store over HTTP.
type Server struct {
	store   *Store
	version string
	router  chi.Router
}

// NewServer assembles the routes for store. version is reported by the
// health endpoint.
func NewServer(store *Store, version string) *Server {
	s := &Server{store: store, version: version}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/meta/tables", s.listTables)
		r.Get("/meta/tables/{table}/columns", s.tableColumns)
		r.Post("/query/execute", s.execute)

		r.Get("/{table}", s.list)
		r.Post("/{table}", s.create)
		r.Put("/{table}/{id}", s.update)
		r.Delete("/{table}/{id}", s.remove)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		debug.Info("Gateway listening", "addr", addr, "provider", s.store.Database().Provider())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Database().Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, client.Health{Status: "unavailable", Version: s.version})
		return
	}
	writeJSON(w, http.StatusOK, client.Health{Status: "ok", Version: s.version})
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.Catalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read schema", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": cat.Tables()})
}

func (s *Server) tableColumns(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Table(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	columns := t.Columns
	if columns == nil {
		columns = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns":    columns,
		"primaryKey": t.PrimaryKey,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r, defaultPageSize, maxPageSize)
	records, total, err := s.store.List(r.Context(), chi.URLParam(r, "table"), p.Page, p.Limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client.Page{
		Records: records,
		Meta:    client.Meta{Total: &total},
	})
}

type mutationBody struct {
	OK   bool          `json:"ok"`
	Data client.Record `json:"data"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var rec client.Record
	if err := decodeJSON(w, r, &rec); err != nil {
		writeNack(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	out, err := s.store.Create(r.Context(), chi.URLParam(r, "table"), rec)
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationBody{OK: true, Data: out})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var rec client.Record
	if err := decodeJSON(w, r, &rec); err != nil {
		writeNack(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	out, err := s.store.Update(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"), rec)
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationBody{OK: true, Data: out})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id")); err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type executeBody struct {
	Query string        `json:"query"`
	Args  []interface{} `json:"args"`
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var body executeBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	start := time.Now()
	res, err := s.store.Execute(r.Context(), body.Query, body.Args)
	if err != nil {
		if errors.Is(err, client.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "Query is required", "")
			return
		}
		writeError(w, http.StatusBadRequest, "Query failed", err.Error())
		return
	}
	debug.Debug("Query executed", "type", res.QueryType, "duration", time.Since(start))

	if res.ReturnsRows {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":      res.Rows,
			"rowCount":  len(res.Rows),
			"queryType": res.QueryType,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"affectedRows": res.AffectedRows,
		"queryType":    res.QueryType,
	})
}

// storeError maps read failures to HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownTable) {
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	debug.Error("Store read failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
}

// mutationError maps write failures to HTTP responses.
func (s *Server) mutationError(w http.ResponseWriter, err error) {
	var colErr *UnknownColumnError
	switch {
	case errors.Is(err, ErrUnknownTable), errors.Is(err, ErrNotFound):
		writeNack(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyPayload), errors.As(err, &colErr):
		writeNack(w, http.StatusBadRequest, err.Error())
	default:
		debug.Warn("Mutation failed", "error", err)
		writeNack(w, http.StatusBadRequest, err.Error())
	}
}
