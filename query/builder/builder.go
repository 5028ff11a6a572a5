// Package builder holds the editable query state. Every transition
// recompiles the SQL synchronously and notifies subscribers.
package builder

import (
	"slices"
	"sync"

	"github.com/satishbabariya/sqlstudio/query/compiler"
	"github.com/satishbabariya/sqlstudio/query/spec"
)

// CompileFunc renders a spec to SQL text. It must be pure.
type CompileFunc func(spec.QuerySpec) string

// Listener receives the spec and its SQL after every transition.
type Listener func(s spec.QuerySpec, sql string)

// Builder is a store over a single QuerySpec.
type Builder struct {
	mu        sync.Mutex
	spec      spec.QuerySpec
	sql       string
	compile   CompileFunc
	listeners []Listener
}

// New creates an empty builder. A nil compile function uses compiler.Compile.
func New(compile CompileFunc) *Builder {
	if compile == nil {
		compile = compiler.Compile
	}
	return &Builder{compile: compile}
}

// Spec returns a copy of the current spec.
func (b *Builder) Spec() spec.QuerySpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spec.Clone()
}

// SQL returns the SQL compiled after the last transition.
func (b *Builder) SQL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sql
}

// Subscribe registers a listener called after each transition.
func (b *Builder) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Builder) apply(mutate func(s *spec.QuerySpec)) *Builder {
	b.mu.Lock()
	mutate(&b.spec)
	b.sql = b.compile(b.spec)
	snapshot, sql := b.spec.Clone(), b.sql
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		l(snapshot, sql)
	}
	return b
}

// Load replaces the whole spec.
func (b *Builder) Load(s spec.QuerySpec) *Builder {
	return b.apply(func(cur *spec.QuerySpec) { *cur = s.Clone() })
}

// SelectTable switches the primary table. Columns, join and conditions
// refer to the previous table and are cleared on a switch.
func (b *Builder) SelectTable(table string) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		if s.Table == table {
			return
		}
		s.Table = table
		s.Columns = nil
		s.Join = nil
		s.Conditions = nil
	})
}

// ToggleColumn adds the column if absent, removes it otherwise.
func (b *Builder) ToggleColumn(column string) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		if i := slices.Index(s.Columns, column); i >= 0 {
			s.Columns = slices.Delete(s.Columns, i, i+1)
			return
		}
		s.Columns = append(s.Columns, column)
	})
}

// SetColumns replaces the selected columns.
func (b *Builder) SetColumns(columns ...string) *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.Columns = slices.Clone(columns) })
}

// AddCondition appends a condition. A zero condition is a blank row
// with the "=" operator.
func (b *Builder) AddCondition(c spec.Condition) *Builder {
	if c.Operator == "" {
		c.Operator = spec.OpEqual
	}
	return b.apply(func(s *spec.QuerySpec) { s.Conditions = append(s.Conditions, c) })
}

// UpdateCondition replaces the condition at index i. Out of range
// indexes are ignored.
func (b *Builder) UpdateCondition(i int, c spec.Condition) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		if i >= 0 && i < len(s.Conditions) {
			s.Conditions[i] = c
		}
	})
}

// RemoveCondition deletes the condition at index i.
func (b *Builder) RemoveCondition(i int) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		if i >= 0 && i < len(s.Conditions) {
			s.Conditions = slices.Delete(s.Conditions, i, i+1)
		}
	})
}

// SetJoin sets the joined table and its raw ON condition.
func (b *Builder) SetJoin(joinType spec.JoinType, table, on string) *Builder {
	if joinType == "" {
		joinType = spec.JoinInner
	}
	return b.apply(func(s *spec.QuerySpec) {
		s.Join = &spec.Join{Type: joinType, Table: table, On: on}
	})
}

// ClearJoin removes the join.
func (b *Builder) ClearJoin() *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.Join = nil })
}

// SetGroupBy sets the raw GROUP BY expression.
func (b *Builder) SetGroupBy(expr string) *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.GroupBy = expr })
}

// SetHaving sets the raw HAVING expression.
func (b *Builder) SetHaving(expr string) *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.Having = expr })
}

// SetOrderBy sets the order column and direction.
func (b *Builder) SetOrderBy(column string, dir spec.Direction) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		s.OrderBy = column
		s.Direction = dir.OrDefault()
	})
}

// SetDirection changes the sort direction and keeps the order column.
func (b *Builder) SetDirection(dir spec.Direction) *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.Direction = dir.OrDefault() })
}

// SetLimit stores the limit text as entered.
func (b *Builder) SetLimit(limit string) *Builder {
	return b.apply(func(s *spec.QuerySpec) { s.Limit = limit })
}

// SetAggregate sets the aggregate function and column. Either may be
// empty to clear the aggregate.
func (b *Builder) SetAggregate(fn spec.AggregateFunc, column string) *Builder {
	return b.apply(func(s *spec.QuerySpec) {
		s.AggregateFunction = fn
		s.AggregateColumn = column
	})
}

// Reset empties the spec.
func (b *Builder) Reset() *Builder {
	return b.apply(func(s *spec.QuerySpec) { *s = spec.QuerySpec{} })
}
