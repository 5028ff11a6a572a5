package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/cli/internal/version"
	"github.com/satishbabariya/sqlstudio/gateway"
)

func newServeCommand(a *app) *cobra.Command {
	var addr, provider, dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference gateway over a local database",
		Long: `Serve a database over the gateway HTTP API: table metadata, paged
row CRUD and raw query execution. Supports sqlite, mysql and postgres.`,
		Example: `  sqlstudio serve --provider sqlite --dsn ./agents.db
  sqlstudio serve --provider postgres --dsn "postgres://localhost/agents?sslmode=disable" --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Gateway.Addr
			}
			if provider == "" {
				provider = a.cfg.Gateway.Provider
			}
			if dsn == "" {
				dsn = a.cfg.Gateway.DSN
			}

			db, err := gateway.Open(provider, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("failed to connect to %s database: %w", provider, err)
			}
			store := gateway.NewStore(db)
			if err := store.Refresh(ctx); err != nil {
				return err
			}

			cat, _ := store.Catalog(ctx)
			ui.PrintSuccess("Gateway listening on %s", addr)
			ui.PrintPanel("Gateway",
				ui.Field{Label: "Provider", Value: provider},
				ui.Field{Label: "Tables", Value: cat.Len()},
				ui.Field{Label: "Version", Value: version.Version},
			)
			return gateway.NewServer(store, version.Version).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default gateway.addr)")
	cmd.Flags().StringVar(&provider, "provider", "", "Database provider: sqlite, mysql or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string")
	return cmd
}
