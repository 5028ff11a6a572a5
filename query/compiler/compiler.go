// Package compiler turns a query spec into SQL.
package compiler

import (
	"github.com/satishbabariya/sqlstudio/query/spec"
	"github.com/satishbabariya/sqlstudio/query/sqlgen"
)

// Compiler composes a QuerySpec into a clause list and renders it for
// one dialect. It holds no state between calls.
type Compiler struct {
	dialect sqlgen.Dialect
}

// NewCompiler creates a compiler for the given dialect. A nil dialect
// selects MySQL quoting.
func NewCompiler(dialect sqlgen.Dialect) *Compiler {
	if dialect == nil {
		dialect = sqlgen.MySQL{}
	}
	return &Compiler{dialect: dialect}
}

// Default is the backtick-quoting compiler used by the package functions.
var Default = NewCompiler(sqlgen.MySQL{})

// Compile renders s with the default compiler.
func Compile(s spec.QuerySpec) string {
	return Default.Compile(s)
}

// CompileParams renders s with bound parameters using the default compiler.
func CompileParams(s spec.QuerySpec) (*sqlgen.Query, error) {
	return Default.CompileParams(s)
}

// Dialect returns the dialect the compiler renders for.
func (c *Compiler) Dialect() sqlgen.Dialect {
	return c.dialect
}

// Build composes the clause list for s. A spec without a table yields an
// empty statement.
func (c *Compiler) Build(s spec.QuerySpec) sqlgen.Statement {
	var stmt sqlgen.Statement
	if s.IsEmpty() {
		return stmt
	}

	sel := sqlgen.SelectClause{Columns: s.Columns}
	if s.HasAggregate() {
		sel.Aggregate = &sqlgen.Aggregate{Func: s.AggregateFunction, Column: s.AggregateColumn}
	}
	stmt.Add(sel)
	stmt.Add(sqlgen.FromClause{Table: s.Table})

	if s.Join.Complete() {
		stmt.Add(sqlgen.JoinClause{Type: s.Join.Type, Table: s.Join.Table, On: s.Join.On})
	}

	if conds := s.ActiveConditions(); len(conds) > 0 {
		where := sqlgen.WhereClause{Predicates: make([]sqlgen.Predicate, 0, len(conds))}
		for _, cond := range conds {
			where.Predicates = append(where.Predicates, sqlgen.Predicate{
				Column:   cond.Column,
				Operator: cond.Operator,
				Value:    cond.Value,
			})
		}
		stmt.Add(where)
	}

	if s.GroupBy != "" {
		stmt.Add(sqlgen.GroupByClause{Expr: s.GroupBy})
		// HAVING is gated on GROUP BY and silently dropped otherwise.
		if s.Having != "" {
			stmt.Add(sqlgen.HavingClause{Expr: s.Having})
		}
	}

	if s.OrderBy != "" {
		stmt.Add(sqlgen.OrderByClause{Column: s.OrderBy, Direction: s.Direction.OrDefault()})
	}

	if s.Limit != "" {
		stmt.Add(sqlgen.LimitClause{Count: s.Limit})
	}

	return stmt
}

// Compile returns the SQL text for s, or "" when no table is selected.
// It never fails; malformed fragments are passed through for the
// executing database to reject.
func (c *Compiler) Compile(s spec.QuerySpec) string {
	return sqlgen.TextRenderer{Dialect: c.dialect}.Render(c.Build(s))
}

// CompileParams returns the statement for s with condition values bound
// as arguments.
func (c *Compiler) CompileParams(s spec.QuerySpec) (*sqlgen.Query, error) {
	return sqlgen.NewParamRenderer(c.dialect).Render(c.Build(s))
}
