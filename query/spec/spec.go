// Package spec defines the structured, editable representation of a SQL
// query before it is rendered to text.
package spec

import (
	"slices"
	"strings"
)

// Operator is a filter comparison operator.
type Operator string

const (
	// OpEqual renders as a quoted literal comparison.
	OpEqual Operator = "="
	// OpNotEqual renders as a quoted literal comparison.
	OpNotEqual Operator = "!="
	// OpGreater renders as a quoted literal comparison.
	OpGreater Operator = ">"
	// OpLess renders as a quoted literal comparison.
	OpLess Operator = "<"
	// OpGreaterEqual renders as a quoted literal comparison.
	OpGreaterEqual Operator = ">="
	// OpLessEqual renders as a quoted literal comparison.
	OpLessEqual Operator = "<="
	// OpLike matches the value as a substring pattern.
	OpLike Operator = "LIKE"
	// OpIn matches against a caller supplied list.
	OpIn Operator = "IN"
	// OpIsNull tests for null and ignores the value.
	OpIsNull Operator = "IS NULL"
	// OpIsNotNull tests for non-null and ignores the value.
	OpIsNotNull Operator = "IS NOT NULL"
)

// Operators lists every supported operator in display order.
var Operators = []Operator{
	OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual,
	OpLike, OpIn, OpIsNull, OpIsNotNull,
}

// OperatorClass groups operators by how their value is rendered.
type OperatorClass int

const (
	ClassLiteral OperatorClass = iota
	ClassNullTest
	ClassPattern
	ClassList
)

func (c OperatorClass) String() string {
	switch c {
	case ClassNullTest:
		return "null-test"
	case ClassPattern:
		return "pattern"
	case ClassList:
		return "list"
	default:
		return "literal"
	}
}

// Class returns the rendering class of the operator.
func (o Operator) Class() OperatorClass {
	switch o {
	case OpIsNull, OpIsNotNull:
		return ClassNullTest
	case OpLike:
		return ClassPattern
	case OpIn:
		return ClassList
	default:
		return ClassLiteral
	}
}

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	return slices.Contains(Operators, o)
}

// ParseOperator normalizes user input such as "is not null" or "<>".
func ParseOperator(s string) (Operator, bool) {
	norm := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	if norm == "<>" {
		norm = string(OpNotEqual)
	}
	op := Operator(norm)
	return op, op.Valid()
}

// JoinType is the kind of JOIN emitted.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
)

// JoinTypes lists the supported join types, default first.
var JoinTypes = []JoinType{JoinInner, JoinLeft, JoinRight}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrDefault returns ASC when d is unset.
func (d Direction) OrDefault() Direction {
	if d == "" {
		return Asc
	}
	return d
}

// AggregateFunc is an aggregate applied to a single column.
type AggregateFunc string

const (
	Count AggregateFunc = "COUNT"
	Sum   AggregateFunc = "SUM"
	Avg   AggregateFunc = "AVG"
	Min   AggregateFunc = "MIN"
	Max   AggregateFunc = "MAX"
)

// AggregateFuncs lists the supported aggregate functions.
var AggregateFuncs = []AggregateFunc{Count, Sum, Avg, Min, Max}

// ColumnRef is a table name paired with a column name. No type
// information is tracked.
type ColumnRef struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Condition is one WHERE predicate. A condition with an empty Column is
// kept in the spec but skipped during compilation.
type Condition struct {
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// Active reports whether the condition takes part in compilation.
func (c Condition) Active() bool {
	return c.Column != ""
}

// Join describes a single joined table. On is raw SQL text and is never
// parsed.
type Join struct {
	Type  JoinType `json:"type,omitempty" yaml:"type,omitempty"`
	Table string   `json:"table" yaml:"table"`
	On    string   `json:"on" yaml:"on"`
}

// Complete reports whether both a table and a condition are present.
func (j *Join) Complete() bool {
	return j != nil && j.Table != "" && j.On != ""
}

// QuerySpec is the aggregate root holding every builder selection.
type QuerySpec struct {
	Table             string        `json:"table" yaml:"table"`
	Columns           []string      `json:"columns,omitempty" yaml:"columns,omitempty"`
	Conditions        []Condition   `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Join              *Join         `json:"join,omitempty" yaml:"join,omitempty"`
	GroupBy           string        `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	Having            string        `json:"having,omitempty" yaml:"having,omitempty"`
	OrderBy           string        `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Direction         Direction     `json:"direction,omitempty" yaml:"direction,omitempty"`
	Limit             string        `json:"limit,omitempty" yaml:"limit,omitempty"`
	AggregateFunction AggregateFunc `json:"aggregateFunction,omitempty" yaml:"aggregateFunction,omitempty"`
	AggregateColumn   string        `json:"aggregateColumn,omitempty" yaml:"aggregateColumn,omitempty"`
}

// IsEmpty reports whether no table has been selected yet.
func (s QuerySpec) IsEmpty() bool {
	return s.Table == ""
}

// HasAggregate reports whether both the aggregate function and column are set.
func (s QuerySpec) HasAggregate() bool {
	return s.AggregateFunction != "" && s.AggregateColumn != ""
}

// ActiveConditions returns the conditions that take part in compilation.
func (s QuerySpec) ActiveConditions() []Condition {
	var out []Condition
	for _, c := range s.Conditions {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the spec.
func (s QuerySpec) Clone() QuerySpec {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.Conditions = slices.Clone(s.Conditions)
	if s.Join != nil {
		j := *s.Join
		out.Join = &j
	}
	return out
}
