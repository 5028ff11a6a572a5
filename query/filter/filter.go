// Package filter parses one-line filter expressions such as
// "Status = succeeded" or "EndTime IS NULL" into query conditions.
package filter

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/satishbabariya/sqlstudio/query/spec"
)

type rawCondition struct {
	Column string       `@Ident`
	Null   *rawNullTest `( @@`
	Like   *rawOperand  `| "LIKE" @@`
	In     *string      `| "IN" @List`
	Cmp    *rawCompare  `| @@ )`
}

type rawNullTest struct {
	Is  string `@"IS"`
	Not bool   `@"NOT"? "NULL"`
}

type rawCompare struct {
	Op    string      `@Operator`
	Value *rawOperand `@@`
}

type rawOperand struct {
	String *string `  @String`
	Scalar *string `| @Scalar`
	Word   *string `| @(Ident | Keyword)`
}

func (o *rawOperand) text() string {
	switch {
	case o.String != nil:
		return unquote(*o.String)
	case o.Scalar != nil:
		return *o.Scalar
	case o.Word != nil:
		return *o.Word
	default:
		return ""
	}
}

var parser = participle.MustBuild[rawCondition](
	participle.Lexer(FilterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
)

// Parse converts a filter expression into a condition.
//
//	Status = succeeded
//	name LIKE bot
//	RunID IN (1, 2, 3)
//	EndTime IS NOT NULL
func Parse(expr string) (spec.Condition, error) {
	raw, err := parser.ParseString("", expr)
	if err != nil {
		return spec.Condition{}, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	cond := spec.Condition{Column: strings.Trim(raw.Column, "`")}
	switch {
	case raw.Null != nil:
		cond.Operator = spec.OpIsNull
		if raw.Null.Not {
			cond.Operator = spec.OpIsNotNull
		}
	case raw.Like != nil:
		cond.Operator = spec.OpLike
		cond.Value = raw.Like.text()
	case raw.In != nil:
		cond.Operator = spec.OpIn
		cond.Value = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(*raw.In, "("), ")"))
	case raw.Cmp != nil:
		op, ok := spec.ParseOperator(raw.Cmp.Op)
		if !ok {
			return spec.Condition{}, fmt.Errorf("invalid filter %q: unknown operator %q", expr, raw.Cmp.Op)
		}
		cond.Operator = op
		cond.Value = raw.Cmp.Value.text()
	}
	return cond, nil
}

// ParseAll parses each expression in order, stopping at the first error.
func ParseAll(exprs []string) ([]spec.Condition, error) {
	out := make([]spec.Condition, 0, len(exprs))
	for _, e := range exprs {
		c, err := Parse(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	q := s[0]
	body := s[1 : len(s)-1]
	if q == '\'' {
		return strings.ReplaceAll(body, "''", "'")
	}
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(body)
}
