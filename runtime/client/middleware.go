package client

import (
	"context"
	"log/slog"
	"time"
)

// Operation names a client call.
type Operation string

const (
	OpList    Operation = "list"
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpRemove  Operation = "remove"
	OpExecute Operation = "execute"
	OpTables  Operation = "tables"
	OpSchema  Operation = "schema"
	OpHealth  Operation = "health"
)

// RequestEvent describes one request as it passes through the middleware chain.
type RequestEvent struct {
	Op        Operation
	Table     string
	Method    string
	Path      string
	RequestID string
	Status    int
	CacheHit  bool
	Start     time.Time
	End       time.Time
	Duration  time.Duration
	Error     error
}

// Middleware intercepts requests. Calling next performs the request;
// the event is complete once next returns.
type Middleware func(ctx context.Context, event *RequestEvent, next func() error) error

// Use adds a middleware to the chain
func (c *Client) Use(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, middleware)
}

// runWithMiddleware executes a request through the middleware chain
func (c *Client) runWithMiddleware(ctx context.Context, event *RequestEvent, exec func() error) error {
	c.mu.RLock()
	middlewares := c.middlewares
	c.mu.RUnlock()

	event.Start = time.Now()
	finish := func(err error) error {
		event.End = time.Now()
		event.Duration = event.End.Sub(event.Start)
		event.Error = err
		return err
	}

	if len(middlewares) == 0 {
		return finish(exec())
	}

	var next func() error
	index := 0

	next = func() error {
		if index >= len(middlewares) {
			return finish(exec())
		}
		middleware := middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware creates a middleware that logs each request
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *RequestEvent, next func() error) error {
		logger.Debug("Sending request", "op", event.Op, "method", event.Method, "path", event.Path, "request_id", event.RequestID)
		err := next()
		attrs := []any{
			"op", event.Op,
			"table", event.Table,
			"status", event.Status,
			"duration", event.Duration,
			"request_id", event.RequestID,
		}
		if event.CacheHit {
			attrs = append(attrs, "cache", "hit")
		}
		if err != nil {
			logger.Warn("Request failed", append(attrs, "error", err)...)
		} else {
			logger.Debug("Request completed", attrs...)
		}
		return err
	}
}

// TimingMiddleware creates a middleware that reports request durations
func TimingMiddleware(onTiming func(op Operation, table string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *RequestEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Op, event.Table, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware creates a middleware that observes failures
func ErrorMiddleware(onError func(event *RequestEvent, err error)) Middleware {
	return func(ctx context.Context, event *RequestEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event, err)
		}
		return err
	}
}
