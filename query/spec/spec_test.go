package spec_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/query/spec"
)

func TestOperatorClass(t *testing.T) {
	tests := []struct {
		op   spec.Operator
		want spec.OperatorClass
	}{
		{spec.OpEqual, spec.ClassLiteral},
		{spec.OpLessEqual, spec.ClassLiteral},
		{spec.OpLike, spec.ClassPattern},
		{spec.OpIn, spec.ClassList},
		{spec.OpIsNull, spec.ClassNullTest},
		{spec.OpIsNotNull, spec.ClassNullTest},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Class())
		})
	}
}

func TestParseOperator(t *testing.T) {
	op, ok := spec.ParseOperator("  is   not null ")
	assert.True(t, ok)
	assert.Equal(t, spec.OpIsNotNull, op)

	op, ok = spec.ParseOperator("<>")
	assert.True(t, ok)
	assert.Equal(t, spec.OpNotEqual, op)

	op, ok = spec.ParseOperator("like")
	assert.True(t, ok)
	assert.Equal(t, spec.OpLike, op)

	_, ok = spec.ParseOperator("BETWEEN")
	assert.False(t, ok)
}

func TestActiveConditions(t *testing.T) {
	s := spec.QuerySpec{
		Table: "Run",
		Conditions: []spec.Condition{
			{Column: "Status", Operator: spec.OpEqual, Value: "ok"},
			{Column: "", Operator: spec.OpEqual, Value: "ignored"},
		},
	}
	active := s.ActiveConditions()
	require.Len(t, active, 1)
	assert.Equal(t, "Status", active[0].Column)
}

func TestClone(t *testing.T) {
	s := spec.QuerySpec{
		Table:   "Run",
		Columns: []string{"RunID"},
		Join:    &spec.Join{Table: "Agent", On: "Run.AgentID = Agent.AgentID"},
	}
	c := s.Clone()
	c.Columns[0] = "Status"
	c.Join.Table = "Project"

	assert.Equal(t, "RunID", s.Columns[0])
	assert.Equal(t, "Agent", s.Join.Table)
}

func TestLoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "q.yaml", []byte(`
table: Run
columns: [RunID, Status]
conditions:
  - column: Status
    operator: "is not null"
orderBy: StartTime
direction: desc
limit: "10"
join:
  type: left
  table: Agent
  on: Run.AgentID = Agent.AgentID
`), 0o644))

	s, err := spec.Load(fs, "q.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Run", s.Table)
	assert.Equal(t, []string{"RunID", "Status"}, s.Columns)
	assert.Equal(t, spec.OpIsNotNull, s.Conditions[0].Operator)
	assert.Equal(t, spec.Desc, s.Direction)
	assert.Equal(t, spec.JoinLeft, s.Join.Type)
	assert.Equal(t, "10", s.Limit)
}

func TestLoadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "q.json", []byte(`{"table":"Project","aggregateFunction":"count","aggregateColumn":"ProjectID"}`), 0o644))

	s, err := spec.Load(fs, "q.json")
	require.NoError(t, err)
	assert.Equal(t, spec.Count, s.AggregateFunction)
	assert.True(t, s.HasAggregate())
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := spec.QuerySpec{Table: "Run", OrderBy: "StartTime", Direction: spec.Desc}
	require.NoError(t, spec.Save(fs, "out.yaml", in))

	out, err := spec.Load(fs, "out.yaml")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWarnings(t *testing.T) {
	s := spec.QuerySpec{
		Table:             "Run",
		Having:            "COUNT(*) > 1",
		Join:              &spec.Join{Table: "Agent"},
		AggregateFunction: spec.Count,
		Conditions:        []spec.Condition{{Column: "x", Operator: "~"}},
	}
	w := s.Warnings()
	assert.Len(t, w, 4)
	assert.Empty(t, spec.QuerySpec{Table: "Run"}.Warnings())
}
