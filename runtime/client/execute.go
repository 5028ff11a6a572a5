package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/satishbabariya/sqlstudio/query/compiler"
	"github.com/satishbabariya/sqlstudio/query/spec"
)

// ResultKind tells which success shape the gateway returned.
type ResultKind int

const (
	// ResultRows carries tabular data.
	ResultRows ResultKind = iota
	// ResultEffect carries an affected row count.
	ResultEffect
)

func (k ResultKind) String() string {
	if k == ResultEffect {
		return "effect"
	}
	return "rows"
}

// ExecResult is a successful gateway response.
type ExecResult struct {
	Kind         ResultKind
	QueryType    string
	Rows         []Record
	RowCount     int
	AffectedRows int64
}

// Columns returns the column names of the first row, in order.
func (r *ExecResult) Columns() []string {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0].Keys()
}

// ExecuteRequest is the gateway request body.
type ExecuteRequest struct {
	Query string `json:"query"`
	Args  []any  `json:"args,omitempty"`
}

type executeResponse struct {
	Data         *[]Record `json:"data"`
	RowCount     *int      `json:"rowCount"`
	AffectedRows *int64    `json:"affectedRows"`
	QueryType    string    `json:"queryType"`
	Error        *string   `json:"error"`
	Details      string    `json:"details"`
}

// Execute sends raw SQL text to the gateway.
func (c *Client) Execute(ctx context.Context, query string) (*ExecResult, error) {
	return c.ExecuteArgs(ctx, query, nil)
}

// ExecuteArgs sends SQL with placeholder arguments to the gateway.
func (c *Client) ExecuteArgs(ctx context.Context, query string, args []any) (*ExecResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	var out executeResponse
	err := c.do(ctx, request{
		op:     OpExecute,
		method: http.MethodPost,
		path:   []string{"api", "query", "execute"},
		body:   ExecuteRequest{Query: query, Args: args},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.result()
}

// ExecuteSpec compiles s with bound parameters and executes it, so
// condition values never travel as SQL text.
func (c *Client) ExecuteSpec(ctx context.Context, s spec.QuerySpec) (*ExecResult, error) {
	q, err := compiler.CompileParams(s)
	if err != nil {
		return nil, err
	}
	if q.SQL == "" {
		return nil, ErrEmptyQuery
	}
	return c.ExecuteArgs(ctx, q.SQL, q.Args)
}

// result interprets whichever of the three response shapes arrived.
func (r executeResponse) result() (*ExecResult, error) {
	switch {
	case r.Error != nil:
		return nil, &BackendError{Op: OpExecute, Status: http.StatusOK, Message: *r.Error, Details: r.Details}
	case r.Data != nil:
		res := &ExecResult{Kind: ResultRows, QueryType: r.QueryType, Rows: *r.Data, RowCount: len(*r.Data)}
		if r.RowCount != nil {
			res.RowCount = *r.RowCount
		}
		return res, nil
	case r.AffectedRows != nil:
		return &ExecResult{Kind: ResultEffect, QueryType: r.QueryType, AffectedRows: *r.AffectedRows}, nil
	default:
		return nil, &BackendError{Op: OpExecute, Status: http.StatusOK, Message: "unrecognized response shape"}
	}
}
