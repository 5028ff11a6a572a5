package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/history"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed queries",
		Long: `Show recently executed queries, most recent first. Without --search
each distinct query is listed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.History()
			if store == nil {
				return fmt.Errorf("history store unavailable at %s", a.cfg.History.Path)
			}
			if limit <= 0 {
				limit = a.cfg.History.Limit
			}

			var (
				entries []history.Entry
				err     error
			)
			if search != "" {
				entries, err = store.Search(cmd.Context(), search, limit)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				ui.PrintInfo("No queries yet")
				return nil
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.ExecutedAt.Local().Format(time.DateTime),
					e.Duration.String(),
					entryResult(e),
					ui.FormatCell(e.Query),
				}
			}
			ui.PrintTable([]string{"Executed", "Took", "Result", "Query"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only queries containing text")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default history.limit)")
	return cmd
}

func entryResult(e history.Entry) string {
	switch {
	case !e.Success:
		return "error: " + e.ErrorMessage
	case e.AffectedRows > 0:
		return strconv.FormatInt(e.AffectedRows, 10) + " affected"
	default:
		return strconv.Itoa(e.RowCount) + " rows"
	}
}
