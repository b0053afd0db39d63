package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/internal/ui"
)

func newCreateCmd(a *app) *cobra.Command {
	var schemaPath, dataPath string

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table from a schema file",
		Long: `Create a table. The schema is a YAML file listing the columns:

  columns:
    - name: id
      type: int32
    - name: name
      type: utf8
    - name: vector
      type: vector
      dim: 128

Initial rows may be given as a YAML or JSON list of objects with --data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sch, err := readSchemaFile(schemaPath)
			if err != nil {
				return err
			}

			var src batch.Source
			if dataPath != "" {
				if src, err = readRowsFile(dataPath, sch); err != nil {
					return err
				}
			}

			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			tbl, err := db.CreateTable(ctx, args[0], src, vectable.WithSchema(sch))
			if err != nil {
				return err
			}

			n, err := tbl.CountRows(ctx, "")
			if err != nil {
				return err
			}
			log.Debug("Created table", "table", tbl.Name(), "rows", n)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s with %d rows\n", ui.Success.Render("created"), tbl, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML)")
	cmd.Flags().StringVar(&dataPath, "data", "", "initial rows (YAML or JSON list)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "add <table>",
		Short: "Append rows to a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}
			src, err := readRowsFile(dataPath, tbl.Schema())
			if err != nil {
				return err
			}
			n, err := tbl.Add(ctx, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s, %s now has %d rows (version %d)\n", ui.Success.Render("added"), tbl.Name(), n, tbl.Version())
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "rows to add (YAML or JSON list)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
