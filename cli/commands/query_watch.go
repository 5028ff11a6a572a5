package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlstudio/cli/internal/config"
	"github.com/satishbabariya/sqlstudio/cli/internal/ui"
	"github.com/satishbabariya/sqlstudio/cli/internal/watch"
	"github.com/satishbabariya/sqlstudio/internal/debug"
	"github.com/satishbabariya/sqlstudio/query/spec"
	"github.com/satishbabariya/sqlstudio/runtime/client"
)

func newQueryWatchCommand(a *app) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "watch <spec-file>",
		Short: "Recompile a spec file whenever it changes",
		Long: `Recompile a spec file whenever it changes. With --execute each
version is also run; results of superseded versions are discarded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file := args[0]
			seq := client.NewSequencer()

			compile := func() error {
				s, err := spec.Load(config.AppFs, file)
				if err != nil {
					return err
				}
				ui.PrintSection(file)
				for _, w := range s.Warnings() {
					ui.PrintWarning("%s", w)
				}
				if err := rf.show(s); err != nil {
					return err
				}
				if !rf.execute || s.IsEmpty() {
					return nil
				}

				token := seq.Next(file)
				go func() {
					res, err := rf.run(ctx, a, s)
					if !seq.Accept(file, token) {
						debug.Debug("Dropped stale result", "file", file)
						return
					}
					if err != nil {
						ui.PrintError("%v", err)
						return
					}
					ui.PrintResult(res)
				}()
				return nil
			}

			w, err := watch.NewWatcher(file, compile, watch.WithErrorHandler(func(err error) {
				ui.PrintError("%v", err)
			}))
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				w.Stop()
				return err
			}
			defer w.Stop()

			ui.PrintSuccess("Watching %s for changes... (Press Ctrl+C to stop)", file)
			<-ctx.Done()
			ui.PrintInfo("Stopping watch mode...")
			return nil
		},
	}

	rf.register(cmd)
	return cmd
}
