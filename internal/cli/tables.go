package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable/internal/ui"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}

			names, err := db.TableNames(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No tables found.")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Run 'vectable create <name> --schema <file>' to create one.")
				return nil
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				tbl, err := db.OpenTable(ctx, name)
				if err != nil {
					return err
				}
				n, err := tbl.CountRows(ctx, "")
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, fmt.Sprint(n), fmt.Sprint(tbl.Version()), tbl.Schema().String()})
			}
			fmt.Fprintln(out, ui.Table([]string{"table", "rows", "version", "schema"}, rows))
			return nil
		},
	}
}
