package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
)

// newTablesCommand creates the tables command.
func newTablesCommand(a *app) *cobra.Command {
	var showColumns bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables the gateway exposes",
		Long: `List the tables the gateway exposes. When the gateway cannot be
reached, the configured catalog (or the built-in default) is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if !showColumns {
				ui.PrintList(cat.Tables())
				return nil
			}

			rows := make([][]string, 0, cat.Len())
			for _, name := range cat.Tables() {
				t, _ := cat.Table(name)
				rows = append(rows, []string{name, t.PrimaryKey, strings.Join(t.Columns, ", ")})
			}
			ui.PrintTable([]string{"Table", "Key", "Columns"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showColumns, "columns", "c", false, "Show columns and primary keys")
	return cmd
}
