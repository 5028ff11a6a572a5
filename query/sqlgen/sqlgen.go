// Package sqlgen holds the structured clause list a query is composed
// into and the renderers that turn it into SQL.
package sqlgen

import (
	"strings"

	"github.com/satishbabariya/sqlstudio/query/spec"
)

// Clause is one element of a Statement. Clauses are rendered in the
// order they appear in Statement.Clauses.
type Clause interface {
	Keyword() string
}

// Aggregate is a single aggregate projection such as COUNT(id).
type Aggregate struct {
	Func   spec.AggregateFunc
	Column string
}

// Alias is the column alias emitted for the aggregate, e.g. COUNT_id.
func (a Aggregate) Alias() string {
	return string(a.Func) + "_" + a.Column
}

// SelectClause is the projection list. An empty clause selects every column.
type SelectClause struct {
	Aggregate *Aggregate
	Columns   []string
}

func (SelectClause) Keyword() string { return "SELECT" }

// FromClause names the primary table.
type FromClause struct {
	Table string
}

func (FromClause) Keyword() string { return "FROM" }

// JoinClause represents a JOIN clause. On is raw SQL text.
type JoinClause struct {
	Type  spec.JoinType
	Table string
	On    string
}

func (JoinClause) Keyword() string { return "JOIN" }

// Predicate is a single WHERE comparison.
type Predicate struct {
	Column   string
	Operator spec.Operator
	Value    string
}

// WhereClause holds predicates joined with AND.
type WhereClause struct {
	Predicates []Predicate
}

func (WhereClause) Keyword() string { return "WHERE" }

// GroupByClause is emitted verbatim.
type GroupByClause struct {
	Expr string
}

func (GroupByClause) Keyword() string { return "GROUP BY" }

// HavingClause is emitted verbatim.
type HavingClause struct {
	Expr string
}

func (HavingClause) Keyword() string { return "HAVING" }

// OrderByClause orders by a single column.
type OrderByClause struct {
	Column    string
	Direction spec.Direction
}

func (OrderByClause) Keyword() string { return "ORDER BY" }

// LimitClause carries the row limit as text.
type LimitClause struct {
	Count string
}

func (LimitClause) Keyword() string { return "LIMIT" }

// Statement is a SELECT statement as an ordered list of clauses.
type Statement struct {
	Clauses []Clause
}

// Add appends a clause and returns the statement for chaining.
func (s *Statement) Add(c Clause) *Statement {
	s.Clauses = append(s.Clauses, c)
	return s
}

// Empty reports whether the statement has no clauses.
func (s Statement) Empty() bool {
	return len(s.Clauses) == 0
}

// Keywords returns the clause keywords in render order.
func (s Statement) Keywords() []string {
	out := make([]string, 0, len(s.Clauses))
	for _, c := range s.Clauses {
		out = append(out, c.Keyword())
	}
	return out
}

// Dialect captures the quoting conventions of a target database.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
}

// MySQL quotes identifiers with backticks. SQLite accepts the same form.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Postgres quotes identifiers with double quotes.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DialectFor returns the dialect for a provider name, defaulting to MySQL.
func DialectFor(provider string) Dialect {
	switch strings.ToLower(provider) {
	case "postgres", "postgresql":
		return Postgres{}
	default:
		return MySQL{}
	}
}
