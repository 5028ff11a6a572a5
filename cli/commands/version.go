package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/cli/internal/update"
	"github.com/satishbabariya/sqlstudio/cli/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for the sqlstudio CLI, and optionally check the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			fmt.Println(info.FullString())
			if !check {
				return nil
			}

			c, err := a.Client()
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			compat, err := update.CheckCompatibility(info.Version, health.Version)
			if err != nil {
				return err
			}

			fmt.Println()
			ui.PrintPanel("Gateway",
				ui.Field{Label: "URL", Value: c.BaseURL()},
				ui.Field{Label: "Status", Value: health.Status},
				ui.Field{Label: "Version", Value: health.Version},
			)
			switch {
			case !compat.Compatible:
				return fmt.Errorf("incompatible gateway: %s", compat.Reason)
			case compat.Reason != "":
				ui.PrintWarning("%s", compat.Reason)
			default:
				ui.PrintSuccess("Gateway is compatible")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check the gateway's health and version compatibility")
	return cmd
}
