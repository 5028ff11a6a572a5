package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/sqlstudio/query/spec"
)

// Query is a SQL statement with bound arguments.
type Query struct {
	SQL  string
	Args []interface{}
}

// ParamRenderer renders a Statement with condition values bound as
// placeholders instead of being interpolated. Join conditions, GROUP BY
// and HAVING remain raw text.
type ParamRenderer struct {
	Dialect     Dialect
	Placeholder sq.PlaceholderFormat
}

// NewParamRenderer returns a renderer with the placeholder style that
// matches the dialect.
func NewParamRenderer(d Dialect) ParamRenderer {
	r := ParamRenderer{Dialect: d, Placeholder: sq.Question}
	if _, ok := d.(Postgres); ok {
		r.Placeholder = sq.Dollar
	}
	return r
}

// Render builds the parameterized form of stmt. An empty statement
// renders to an empty Query.
func (r ParamRenderer) Render(stmt Statement) (*Query, error) {
	if stmt.Empty() {
		return &Query{}, nil
	}
	d := r.Dialect
	if d == nil {
		d = MySQL{}
	}
	ph := r.Placeholder
	if ph == nil {
		ph = sq.Question
	}

	builder := sq.Select()
	for _, c := range stmt.Clauses {
		switch c := c.(type) {
		case SelectClause:
			builder = builder.Columns(selectList(c))
		case FromClause:
			builder = builder.From(d.QuoteIdentifier(c.Table))
		case JoinClause:
			builder = builder.JoinClause(fmt.Sprintf("%s JOIN %s ON %s", joinType(c.Type), d.QuoteIdentifier(c.Table), c.On))
		case WhereClause:
			for _, p := range c.Predicates {
				pred, err := predicateSqlizer(p)
				if err != nil {
					return nil, err
				}
				builder = builder.Where(pred)
			}
		case GroupByClause:
			builder = builder.GroupBy(c.Expr)
		case HavingClause:
			builder = builder.Having(c.Expr)
		case OrderByClause:
			builder = builder.OrderBy(fmt.Sprintf("%s %s", c.Column, c.Direction.OrDefault()))
		case LimitClause:
			n, err := strconv.ParseUint(strings.TrimSpace(c.Count), 10, 64)
			if err != nil {
				return nil, &ValidationGapError{Clause: "LIMIT", Value: c.Count}
			}
			builder = builder.Limit(n)
		}
	}

	sqlText, args, err := builder.PlaceholderFormat(ph).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return &Query{SQL: sqlText, Args: args}, nil
}

func predicateSqlizer(p Predicate) (sq.Sqlizer, error) {
	switch p.Operator {
	case spec.OpEqual:
		return sq.Eq{p.Column: p.Value}, nil
	case spec.OpNotEqual:
		return sq.NotEq{p.Column: p.Value}, nil
	case spec.OpGreater:
		return sq.Gt{p.Column: p.Value}, nil
	case spec.OpLess:
		return sq.Lt{p.Column: p.Value}, nil
	case spec.OpGreaterEqual:
		return sq.GtOrEq{p.Column: p.Value}, nil
	case spec.OpLessEqual:
		return sq.LtOrEq{p.Column: p.Value}, nil
	case spec.OpLike:
		return sq.Like{p.Column: "%" + p.Value + "%"}, nil
	case spec.OpIn:
		items, err := SplitList(p.Value)
		if err != nil {
			return nil, &ValidationGapError{Clause: "IN", Value: p.Value}
		}
		return sq.Eq{p.Column: items}, nil
	case spec.OpIsNull:
		return sq.Eq{p.Column: nil}, nil
	case spec.OpIsNotNull:
		return sq.NotEq{p.Column: nil}, nil
	default:
		return nil, &ValidationGapError{Clause: "WHERE", Value: string(p.Operator)}
	}
}

// SplitList splits a comma separated literal list such as
// "1, 'a,b', 'it''s'" into values. Quoted items become strings with
// doubled quotes collapsed, bare numbers become int64 or float64, other
// bare words stay strings.
func SplitList(raw string) ([]interface{}, error) {
	var (
		items   []interface{}
		cur     strings.Builder
		quoted  bool
		inQuote bool
	)
	flush := func() {
		text := cur.String()
		cur.Reset()
		if quoted {
			items = append(items, text)
		} else if t := strings.TrimSpace(text); t != "" {
			items = append(items, bareValue(t))
		}
		quoted = false
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case inQuote && ch == '\'':
			if i+1 < len(raw) && raw[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
		case inQuote:
			cur.WriteByte(ch)
		case ch == '\'':
			if strings.TrimSpace(cur.String()) != "" {
				return nil, fmt.Errorf("unexpected quote at offset %d", i)
			}
			cur.Reset()
			inQuote = true
			quoted = true
		case ch == ',':
			flush()
		case quoted:
			if ch != ' ' && ch != '\t' {
				return nil, fmt.Errorf("unexpected %q after quoted item", ch)
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return items, nil
}

func bareValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
