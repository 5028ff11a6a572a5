package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// newRowsCommand creates the parent rows command.
func newRowsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Browse and edit table rows",
		Long:  "Commands to list, create, update and delete rows through the gateway's resource API.",
	}

	cmd.AddCommand(newRowsListCommand(a))
	cmd.AddCommand(newRowsCreateCommand(a))
	cmd.AddCommand(newRowsUpdateCommand(a))
	cmd.AddCommand(newRowsDeleteCommand(a))
	return cmd
}

func newRowsListCommand(a *app) *cobra.Command {
	var (
		page    int
		limit   int
		columns []string
		every   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List one page of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = a.cfg.PageSize
			}
			rc, err := a.Resources(cmd.Context())
			if err != nil {
				return err
			}
			if every > 0 {
				return watchRows(cmd.Context(), rc, args[0], page, limit, columns, every)
			}
			p, err := rc.List(cmd.Context(), args[0], page, limit)
			if err != nil {
				return err
			}
			printPage(args[0], p, page, limit, columns)
			st := rc.CacheStats()
			debug.Debug("List cache", "hits", st.Hits, "misses", st.Misses, "size", st.Size)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number (starting at 1)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Rows per page (default page_size)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to show")
	cmd.Flags().DurationVarP(&every, "watch", "w", 0, "Refresh every interval")
	return cmd
}

func printPage(table string, p *client.Page, page, limit int, columns []string) {
	ui.PrintRecords(p.Records, columns)
	summary := fmt.Sprintf("%s · page %d · %d rows", table, page, len(p.Records))
	if p.Meta.Total != nil {
		summary += fmt.Sprintf(" of %d", *p.Meta.Total)
	}
	if p.HasNext(page, limit) {
		summary += fmt.Sprintf(" · next: --page %d", page+1)
	}
	fmt.Println(ui.Muted(summary))
}

// watchRows refreshes a page until ctx ends. A slow response that
// arrives after a newer one is dropped.
func watchRows(ctx context.Context, rc *client.ResourceClient, table string, page, limit int, columns []string, every time.Duration) error {
	seq := client.NewSequencer()
	key := fmt.Sprintf("%s:%d:%d", table, page, limit)

	type result struct {
		token client.Token
		page  *client.Page
		err   error
	}
	results := make(chan result)

	refresh := func() {
		token := seq.Next(key)
		rc.Invalidate(table)
		go func() {
			p, err := rc.List(ctx, table, page, limit)
			select {
			case results <- result{token: token, page: p, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	refresh()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh()
		case r := <-results:
			if !seq.Accept(key, r.token) {
				debug.Debug("Dropped stale page", "table", table)
				continue
			}
			if r.err != nil {
				ui.PrintError("%v", r.err)
				continue
			}
			fmt.Print("\033[H\033[2J")
			printPage(table, r.page, page, limit, columns)
			fmt.Println(ui.Muted("refreshed " + time.Now().Format(time.TimeOnly)))
		}
	}
}

type payloadFlags struct {
	jsonBody string
	sets     []string
	nulls    []string
}

func (f *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.jsonBody, "json", "", "Fields as a JSON object")
	cmd.Flags().StringArrayVarP(&f.sets, "set", "s", nil, "Field value as field=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.nulls, "null", nil, "Field to set to null (repeatable)")
}

func (f *payloadFlags) build() (client.Record, error) {
	rec, dropped, err := buildPayload(f.jsonBody, f.sets, f.nulls)
	if len(dropped) > 0 {
		ui.PrintWarning("Skipping auto-managed fields: %v", dropped)
	}
	return rec, err
}

func newRowsCreateCommand(a *app) *cobra.Command {
	var fields payloadFlags

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Insert a row",
		Example: `  sqlstudio rows create Agent --set Name=crawler --set Type=web
  sqlstudio rows create Run --json '{"AgentID": 3, "Status": "queued"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := fields.build()
			if err != nil {
				return err
			}
			rc, err := a.Resources(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := rc.Create(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			ui.PrintSuccess("Created row in %s", args[0])
			if rec.Len() > 0 {
				ui.PrintRecord(rec)
			}
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

func newRowsUpdateCommand(a *app) *cobra.Command {
	var (
		fields   payloadFlags
		original string
	)

	cmd := &cobra.Command{
		Use:   "update <table> [id]",
		Short: "Update a row",
		Long: `Update the row identified by id, or by the identifier resolved from
--record (the table's primary key, else the record's first field).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := fields.build()
			if err != nil {
				return err
			}
			rc, err := a.Resources(cmd.Context())
			if err != nil {
				return err
			}

			var rec client.Record
			switch {
			case len(args) == 2:
				rec, err = rc.Update(cmd.Context(), args[0], args[1], payload)
			case original != "":
				orig, perr := parseRecord(original)
				if perr != nil {
					return perr
				}
				rec, err = rc.UpdateRecord(cmd.Context(), args[0], orig, payload)
			default:
				return fmt.Errorf("an id argument or --record is required")
			}
			if err != nil {
				return err
			}
			ui.PrintSuccess("Updated row in %s", args[0])
			if rec.Len() > 0 {
				ui.PrintRecord(rec)
			}
			return nil
		},
	}

	fields.register(cmd)
	cmd.Flags().StringVar(&original, "record", "", "Existing row as a JSON object, used to resolve the identifier")
	return cmd
}

func newRowsDeleteCommand(a *app) *cobra.Command {
	var (
		original string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:     "delete <table> [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a row",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			var orig client.Record
			id := ""
			if len(args) == 2 {
				id = args[1]
			} else if original != "" {
				var err error
				if orig, err = parseRecord(original); err != nil {
					return err
				}
			} else {
				return fmt.Errorf("an id argument or --record is required")
			}

			if !yes {
				label := id
				if label == "" {
					label = original
				}
				confirmed := false
				prompt := &survey.Confirm{Message: fmt.Sprintf("Delete %s %s?", table, label)}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					ui.PrintInfo("Cancelled")
					return nil
				}
			}

			rc, err := a.Resources(cmd.Context())
			if err != nil {
				return err
			}
			if id != "" {
				_, err = rc.Remove(cmd.Context(), table, id)
			} else {
				_, err = rc.RemoveRecord(cmd.Context(), table, orig)
			}
			if err != nil {
				return err
			}
			ui.PrintSuccess("Deleted row from %s", table)
			return nil
		},
	}

	cmd.Flags().StringVar(&original, "record", "", "Row as a JSON object, used to resolve the identifier")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
