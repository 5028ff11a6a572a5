package commands

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/query/builder"
	"github.com/satishbabariya/sqlstudio/query/spec"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := config.AppFs
	fs := afero.NewMemMapFs()
	config.AppFs = fs
	t.Cleanup(func() { config.AppFs = prev })
	return fs
}

func TestParseAggregate(t *testing.T) {
	fn, col, err := parseAggregate("count(RunID)")
	require.NoError(t, err)
	assert.Equal(t, spec.Count, fn)
	assert.Equal(t, "RunID", col)

	fn, col, err = parseAggregate(" AVG( Value ) ")
	require.NoError(t, err)
	assert.Equal(t, spec.Avg, fn)
	assert.Equal(t, "Value", col)

	for _, bad := range []string{"COUNT", "MEDIAN(x)", "SUM()", "(x)"} {
		_, _, err := parseAggregate(bad)
		assert.Error(t, err, bad)
	}
}

func TestQueryFlagsApply(t *testing.T) {
	f := queryFlags{
		table:     "Run",
		columns:   []string{"RunID", "Status"},
		where:     []string{"Status = failed", "EndTime IS NULL"},
		joinType:  "left",
		joinTable: "Agent",
		joinOn:    "Run.AgentID = Agent.AgentID",
		orderBy:   "StartTime",
		desc:      true,
		limit:     "10",
	}
	b := builder.New(nil)
	require.NoError(t, f.apply(b))

	assert.Equal(t,
		"SELECT RunID, Status FROM `Run` LEFT JOIN `Agent` ON Run.AgentID = Agent.AgentID WHERE Status = 'failed' AND EndTime IS NULL ORDER BY StartTime DESC LIMIT 10;",
		b.SQL())
}

func TestQueryFlagsAggregate(t *testing.T) {
	f := queryFlags{table: "Run", aggregate: "COUNT(RunID)", groupBy: "AgentID", having: "COUNT(RunID) > 1"}
	b := builder.New(nil)
	require.NoError(t, f.apply(b))
	assert.Equal(t,
		"SELECT COUNT(RunID) AS COUNT_RunID FROM `Run` GROUP BY AgentID HAVING COUNT(RunID) > 1;",
		b.SQL())
}

func TestQueryFlagsFromFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/q.yaml", []byte(`
table: Agent
columns: [Name]
conditions:
  - column: Type
    operator: "="
    value: web
`), 0644))

	f := queryFlags{from: "/q.yaml", where: []string{"Name LIKE bot"}, limit: "5"}
	b := builder.New(nil)
	require.NoError(t, f.apply(b))
	assert.Equal(t,
		"SELECT Name FROM `Agent` WHERE Type = 'web' AND Name LIKE '%bot%' LIMIT 5;",
		b.SQL())
}

func TestQueryFlagsBadFilter(t *testing.T) {
	f := queryFlags{table: "Run", where: []string{"= nothing"}}
	assert.Error(t, f.apply(builder.New(nil)))
}
