package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
)

func newExecCommand(a *app) *cobra.Command {
	var (
		file     string
		execArgs []string
		pick     bool
	)

	cmd := &cobra.Command{
		Use:   "exec [sql]",
		Short: "Run raw SQL through the gateway",
		Example: `  sqlstudio exec "SELECT * FROM Run WHERE Status = 'failed'"
  sqlstudio exec "UPDATE Run SET Status = ? WHERE RunID = ?" --arg done --arg 42
  sqlstudio exec --file cleanup.sql
  sqlstudio exec --pick`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			switch {
			case len(args) == 1:
				query = args[0]
			case file != "":
				data, err := afero.ReadFile(config.AppFs, file)
				if err != nil {
					return err
				}
				query = string(data)
			case pick:
				recent := a.Recent(cmd.Context()).List()
				if len(recent) == 0 {
					return fmt.Errorf("no recent queries")
				}
				if err := survey.AskOne(&survey.Select{Message: "Run again:", Options: recent}, &query); err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide SQL as an argument or with --file")
			}
			query = strings.TrimSpace(query)

			c, err := a.Client()
			if err != nil {
				return err
			}

			var params []any
			for _, v := range execArgs {
				params = append(params, v)
			}

			spinner := ui.StartSpinner("Running query...")
			start := time.Now()
			res, err := c.ExecuteArgs(cmd.Context(), query, params)
			ui.StopSpinner(spinner)
			a.record(cmd.Context(), query, start, res, err)
			if err != nil {
				return err
			}
			ui.PrintResult(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read SQL from a file")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose from recently executed queries")
	cmd.Flags().StringArrayVar(&execArgs, "arg", nil, "Placeholder argument (repeatable)")
	return cmd
}
