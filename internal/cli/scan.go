package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable/model"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		where string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "scan <table>",
		Short: "Print the rows of a table in insertion order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}
			seq, err := tbl.Scan(ctx, where)
			if err != nil {
				return err
			}

			var rows []model.Row
			for row, err := range seq {
				if err != nil {
					return err
				}
				rows = append(rows, row)
				if limit > 0 && len(rows) == limit {
					break
				}
			}
			renderRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&where, "where", "w", "", "filter expression, e.g. \"id > 24\"")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of rows (0 for all)")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := tbl.CountRows(ctx, where)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&where, "where", "w", "", "filter expression")
	return cmd
}
