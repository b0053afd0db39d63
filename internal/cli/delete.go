package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable/internal/ui"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <filter>",
		Short: "Delete the rows matching a filter",
		Example: `  vectable delete my_table "id > 24"
  vectable delete people "name = 'Bob' OR name IS NULL"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := tbl.Delete(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d rows from %s\n", ui.Success.Render("deleted"), n, tbl.Name())
			return nil
		},
	}
}
