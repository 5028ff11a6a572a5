package sqlgen_test

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/query/spec"
	"github.com/satishbabariya/sqlstudio/query/sqlgen"
)

func fullStatement() sqlgen.Statement {
	var stmt sqlgen.Statement
	stmt.Add(sqlgen.SelectClause{Columns: []string{"RunID", "Status"}}).
		Add(sqlgen.FromClause{Table: "Run"}).
		Add(sqlgen.JoinClause{Type: spec.JoinLeft, Table: "Agent", On: "Run.AgentID = Agent.AgentID"}).
		Add(sqlgen.WhereClause{Predicates: []sqlgen.Predicate{
			{Column: "Status", Operator: spec.OpEqual, Value: "succeeded"},
			{Column: "Name", Operator: spec.OpLike, Value: "bot"},
			{Column: "RunID", Operator: spec.OpIn, Value: "1, 2"},
			{Column: "EndTime", Operator: spec.OpIsNull},
		}}).
		Add(sqlgen.OrderByClause{Column: "StartTime", Direction: spec.Desc}).
		Add(sqlgen.LimitClause{Count: "10"})
	return stmt
}

func TestTextRenderer(t *testing.T) {
	got := sqlgen.TextRenderer{}.Render(fullStatement())
	assert.Equal(t,
		"SELECT RunID, Status FROM `Run` LEFT JOIN `Agent` ON Run.AgentID = Agent.AgentID "+
			"WHERE Status = 'succeeded' AND Name LIKE '%bot%' AND RunID IN (1, 2) AND EndTime IS NULL "+
			"ORDER BY StartTime DESC LIMIT 10;",
		got)
}

func TestTextRendererEmpty(t *testing.T) {
	assert.Equal(t, "", sqlgen.TextRenderer{}.Render(sqlgen.Statement{}))
}

func TestTextRendererPostgres(t *testing.T) {
	var stmt sqlgen.Statement
	stmt.Add(sqlgen.SelectClause{}).Add(sqlgen.FromClause{Table: "Run"})
	got := sqlgen.TextRenderer{Dialect: sqlgen.Postgres{}}.Render(stmt)
	assert.Equal(t, `SELECT * FROM "Run";`, got)
}

func TestKeywords(t *testing.T) {
	assert.Equal(t,
		[]string{"SELECT", "FROM", "JOIN", "WHERE", "ORDER BY", "LIMIT"},
		fullStatement().Keywords())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`Run`", sqlgen.MySQL{}.QuoteIdentifier("Run"))
	assert.Equal(t, "`a``b`", sqlgen.MySQL{}.QuoteIdentifier("a`b"))
	assert.Equal(t, `"a""b"`, sqlgen.Postgres{}.QuoteIdentifier(`a"b`))
	assert.Equal(t, "postgres", sqlgen.DialectFor("postgresql").Name())
	assert.Equal(t, "mysql", sqlgen.DialectFor("sqlite").Name())
}

func TestParamRenderer(t *testing.T) {
	q, err := sqlgen.NewParamRenderer(sqlgen.MySQL{}).Render(fullStatement())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT RunID, Status FROM `Run` LEFT JOIN `Agent` ON Run.AgentID = Agent.AgentID "+
			"WHERE Status = ? AND Name LIKE ? AND RunID IN (?,?) AND EndTime IS NULL "+
			"ORDER BY StartTime DESC LIMIT 10",
		q.SQL)
	assert.Equal(t, []interface{}{"succeeded", "%bot%", int64(1), int64(2)}, q.Args)
}

func TestParamRendererDollar(t *testing.T) {
	var stmt sqlgen.Statement
	stmt.Add(sqlgen.SelectClause{}).
		Add(sqlgen.FromClause{Table: "Run"}).
		Add(sqlgen.WhereClause{Predicates: []sqlgen.Predicate{
			{Column: "Status", Operator: spec.OpNotEqual, Value: "failed"},
			{Column: "Score", Operator: spec.OpGreaterEqual, Value: "3"},
		}})

	r := sqlgen.NewParamRenderer(sqlgen.Postgres{})
	assert.Equal(t, sq.Dollar, r.Placeholder)

	q, err := r.Render(stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "Run" WHERE Status <> $1 AND Score >= $2`, q.SQL)
	assert.Equal(t, []interface{}{"failed", "3"}, q.Args)
}

func TestParamRendererValidationGap(t *testing.T) {
	var stmt sqlgen.Statement
	stmt.Add(sqlgen.SelectClause{}).
		Add(sqlgen.FromClause{Table: "Run"}).
		Add(sqlgen.LimitClause{Count: "ten"})

	_, err := sqlgen.NewParamRenderer(sqlgen.MySQL{}).Render(stmt)
	require.Error(t, err)
	assert.True(t, sqlgen.IsValidationGap(err))

	var gap *sqlgen.ValidationGapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "LIMIT", gap.Clause)
	assert.Equal(t, "ten", gap.Value)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []interface{}
	}{
		{"numbers", "1, 2,3", []interface{}{int64(1), int64(2), int64(3)}},
		{"quoted", "'a,b', 'it''s'", []interface{}{"a,b", "it's"}},
		{"mixed", "1.5, open, 'x'", []interface{}{1.5, "open", "x"}},
		{"empty quoted", "''", []interface{}{""}},
		{"blank", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sqlgen.SplitList(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := sqlgen.SplitList("'open")
	assert.Error(t, err)
	_, err = sqlgen.SplitList("'a' b")
	assert.Error(t, err)
}
