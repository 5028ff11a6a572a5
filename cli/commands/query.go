package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/query/builder"
	"github.com/satishbabariya/sqlstudio/query/compiler"
	"github.com/satishbabariya/sqlstudio/query/filter"
	"github.com/satishbabariya/sqlstudio/query/spec"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// newQueryCommand creates the parent query command.
func newQueryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Compose SELECT statements",
		Long:  "Commands to compose SELECT statements from flags, spec files or prompts, and optionally run them.",
	}

	cmd.AddCommand(newQueryBuildCommand(a))
	cmd.AddCommand(newQueryWatchCommand(a))
	cmd.AddCommand(newQueryInteractiveCommand(a))
	return cmd
}

// queryFlags describe a spec on the command line.
type queryFlags struct {
	from      string
	table     string
	columns   []string
	where     []string
	joinType  string
	joinTable string
	joinOn    string
	groupBy   string
	having    string
	orderBy   string
	desc      bool
	limit     string
	aggregate string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.from, "from", "f", "", "Start from a spec file (YAML or JSON)")
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "Primary table")
	cmd.Flags().StringSliceVarP(&f.columns, "columns", "c", nil, "Columns to select (default *)")
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, `Condition such as "Status = failed" (repeatable, ANDed)`)
	cmd.Flags().StringVar(&f.joinType, "join-type", "INNER", "Join type: INNER, LEFT or RIGHT")
	cmd.Flags().StringVar(&f.joinTable, "join", "", "Table to join")
	cmd.Flags().StringVar(&f.joinOn, "on", "", "Join condition")
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", "GROUP BY expression")
	cmd.Flags().StringVar(&f.having, "having", "", "HAVING expression (needs --group-by)")
	cmd.Flags().StringVar(&f.orderBy, "order-by", "", "Column to order by")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Order descending")
	cmd.Flags().StringVar(&f.limit, "limit", "", "LIMIT value")
	cmd.Flags().StringVar(&f.aggregate, "aggregate", "", `Aggregate such as "COUNT(RunID)"`)
}

// apply drives the builder through the transitions the flags describe.
func (f *queryFlags) apply(b *builder.Builder) error {
	if f.from != "" {
		s, err := spec.Load(config.AppFs, f.from)
		if err != nil {
			return err
		}
		b.Load(s)
	}
	if f.table != "" {
		b.SelectTable(f.table)
	}
	if len(f.columns) > 0 {
		b.SetColumns(f.columns...)
	}

	conds, err := filter.ParseAll(f.where)
	if err != nil {
		return err
	}
	for _, c := range conds {
		b.AddCondition(c)
	}

	if f.joinTable != "" {
		b.SetJoin(spec.JoinType(strings.ToUpper(f.joinType)), f.joinTable, f.joinOn)
	}
	if f.groupBy != "" {
		b.SetGroupBy(f.groupBy)
	}
	if f.having != "" {
		b.SetHaving(f.having)
	}
	if f.orderBy != "" {
		dir := spec.Asc
		if f.desc {
			dir = spec.Desc
		}
		b.SetOrderBy(f.orderBy, dir)
	}
	if f.limit != "" {
		b.SetLimit(f.limit)
	}
	if f.aggregate != "" {
		fn, col, err := parseAggregate(f.aggregate)
		if err != nil {
			return err
		}
		b.SetAggregate(fn, col)
	}
	return nil
}

// parseAggregate splits "COUNT(RunID)" into function and column.
func parseAggregate(s string) (spec.AggregateFunc, string, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", fmt.Errorf("invalid aggregate %q, expected FUNC(column)", s)
	}
	fn := spec.AggregateFunc(strings.ToUpper(strings.TrimSpace(s[:open])))
	col := strings.TrimSpace(s[open+1 : len(s)-1])
	valid := false
	for _, f := range spec.AggregateFuncs {
		if f == fn {
			valid = true
		}
	}
	if !valid || col == "" {
		return "", "", fmt.Errorf("invalid aggregate %q", s)
	}
	return fn, col, nil
}

type runFlags struct {
	execute bool
	params  bool
	plain   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.execute, "execute", "x", false, "Run the query through the gateway")
	cmd.Flags().BoolVar(&f.params, "params", false, "Use bound parameters instead of inlined literals")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print SQL without formatting")
}

func printSQL(sql string, plain bool) {
	if plain {
		fmt.Println(sql)
		return
	}
	ui.PrintSQL(sql)
}

// show prints the SQL for s, or its parameterized form.
func (f *runFlags) show(s spec.QuerySpec) error {
	if !f.params {
		printSQL(compiler.Compile(s), f.plain)
		return nil
	}
	q, err := compiler.CompileParams(s)
	if err != nil {
		return err
	}
	printSQL(q.SQL, f.plain)
	for i, arg := range q.Args {
		fmt.Printf("  $%d = %#v\n", i+1, arg)
	}
	return nil
}

// run executes s and records it in history.
func (f *runFlags) run(ctx context.Context, a *app, s spec.QuerySpec) (*client.ExecResult, error) {
	c, err := a.Client()
	if err != nil {
		return nil, err
	}
	sql := compiler.Compile(s)
	start := time.Now()

	var res *client.ExecResult
	if f.params {
		res, err = c.ExecuteSpec(ctx, s)
	} else {
		res, err = c.Execute(ctx, sql)
	}
	a.record(ctx, sql, start, res, err)
	return res, err
}

func newQueryBuildCommand(a *app) *cobra.Command {
	var (
		qf   queryFlags
		rf   runFlags
		save string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compose a SELECT from flags",
		Example: `  sqlstudio query build -t Run -c RunID,Status -w "Status = failed" --order-by StartTime --desc --limit 20
  sqlstudio query build -t Run --aggregate "COUNT(RunID)" --group-by AgentID -x
  sqlstudio query build -f failed-runs.yaml --params -x`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := builder.New(nil)
			if err := qf.apply(b); err != nil {
				return err
			}
			s := b.Spec()
			for _, w := range s.Warnings() {
				ui.PrintWarning("%s", w)
			}
			if err := rf.show(s); err != nil {
				return err
			}

			if save != "" {
				if err := spec.Save(config.AppFs, save, s); err != nil {
					return err
				}
				ui.PrintSuccess("Saved spec to %s", save)
			}

			if !rf.execute || s.IsEmpty() {
				return nil
			}
			res, err := rf.run(cmd.Context(), a, s)
			if err != nil {
				return err
			}
			ui.PrintResult(res)
			return nil
		},
	}

	qf.register(cmd)
	rf.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Write the resulting spec to a YAML file")
	return cmd
}
