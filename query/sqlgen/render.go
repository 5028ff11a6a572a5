package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlstudio/query/spec"
)

// TextRenderer renders a Statement as literal SQL text. Values and raw
// fragments are inserted as-is; it never fails.
type TextRenderer struct {
	Dialect Dialect
}

// Render returns the SQL text for stmt terminated with ';', or "" for an
// empty statement.
func (r TextRenderer) Render(stmt Statement) string {
	if stmt.Empty() {
		return ""
	}
	d := r.Dialect
	if d == nil {
		d = MySQL{}
	}

	var parts []string
	for _, c := range stmt.Clauses {
		if s := r.clause(d, c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ") + ";"
}

func (r TextRenderer) clause(d Dialect, c Clause) string {
	switch c := c.(type) {
	case SelectClause:
		return "SELECT " + selectList(c)
	case FromClause:
		return "FROM " + d.QuoteIdentifier(c.Table)
	case JoinClause:
		return fmt.Sprintf("%s JOIN %s ON %s", joinType(c.Type), d.QuoteIdentifier(c.Table), c.On)
	case WhereClause:
		if len(c.Predicates) == 0 {
			return ""
		}
		preds := make([]string, 0, len(c.Predicates))
		for _, p := range c.Predicates {
			preds = append(preds, predicateText(p))
		}
		return "WHERE " + strings.Join(preds, " AND ")
	case GroupByClause:
		return "GROUP BY " + c.Expr
	case HavingClause:
		return "HAVING " + c.Expr
	case OrderByClause:
		return fmt.Sprintf("ORDER BY %s %s", c.Column, c.Direction.OrDefault())
	case LimitClause:
		return "LIMIT " + c.Count
	default:
		return ""
	}
}

func selectList(c SelectClause) string {
	var items []string
	if c.Aggregate != nil {
		items = append(items, fmt.Sprintf("%s(%s) AS %s", c.Aggregate.Func, c.Aggregate.Column, c.Aggregate.Alias()))
	}
	items = append(items, c.Columns...)
	if len(items) == 0 {
		return "*"
	}
	return strings.Join(items, ", ")
}

func joinType(t spec.JoinType) spec.JoinType {
	if t == "" {
		return spec.JoinInner
	}
	return t
}

func predicateText(p Predicate) string {
	switch p.Operator.Class() {
	case spec.ClassNullTest:
		return fmt.Sprintf("%s %s", p.Column, p.Operator)
	case spec.ClassPattern:
		return fmt.Sprintf("%s %s '%%%s%%'", p.Column, p.Operator, p.Value)
	case spec.ClassList:
		return fmt.Sprintf("%s %s (%s)", p.Column, p.Operator, p.Value)
	default:
		return fmt.Sprintf("%s %s '%s'", p.Column, p.Operator, p.Value)
	}
}
