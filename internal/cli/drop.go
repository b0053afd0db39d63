package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable/internal/config"
	"github.com/hupe1980/vectable/internal/ui"
)

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Delete a table and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if err := db.DropTable(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Success.Render("dropped"), args[0])
			return nil
		},
	}
}

func newDropDBCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop-db",
		Short: "Delete every table of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := config.Get().Database.URI
			if !yes {
				return fmt.Errorf("refusing to drop %s without --yes", uri)
			}

			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if err := db.DropDatabase(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warning.Render("dropped database"), db.URI())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm dropping all data")
	return cmd
}
