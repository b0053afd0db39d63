package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/internal/ui"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

const demoURI = "memory://vectable-demo"

func newDemoCmd(a *app) *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the walkthrough programs",
		Long: `Run small programs that walk through the vectable API. They use their own
database, an in-memory one unless --uri is given, and clean up after
themselves.`,
	}
	cmd.PersistentFlags().StringVar(&uri, "uri", demoURI, "database the demos run against")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get-started",
			Short: "Connect to a database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.connectURI(cmd.Context(), uri)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), db)
				return nil
			},
		},
		&cobra.Command{
			Use:   "about-a-table",
			Short: "Create, fill, query and drop tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				db, err := a.connectURI(ctx, uri)
				if err != nil {
					return err
				}
				return aboutATable(ctx, cmd.OutOrStdout(), db)
			},
		},
	)
	return cmd
}

const demoDim = 128

func aboutATable(ctx context.Context, out io.Writer, db *vectable.Database) error {
	step := func(title string) { fmt.Fprintln(out, ui.SectionTitle.Render(title)) }

	step("Empty table")
	empty, err := db.CreateEmptyTable(ctx, "empty_table", schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "name", Type: schema.Utf8(), Nullable: true},
	))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, empty, empty.Schema())

	step("Table from rows")
	person := schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "name", Type: schema.Utf8()},
	)
	pb := batch.NewBuilder(person)
	for i, name := range []string{"Alice", "Bob", "Lily"} {
		if err := pb.Append(i+1, name); err != nil {
			return err
		}
	}
	rows, err := pb.Build()
	if err != nil {
		return err
	}
	people, err := db.CreateTable(ctx, "table_with_person", batch.Of(rows))
	if err != nil {
		return err
	}
	if err := printScan(ctx, out, people, ""); err != nil {
		return err
	}

	step("Vector table")
	vectors := schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "vector", Type: schema.Vector(demoDim)},
	)
	ones := make([]float32, demoDim)
	for i := range ones {
		ones[i] = 1
	}
	src := func(first int) (batch.Source, error) {
		b := batch.NewBuilder(vectors)
		for i := range 1000 {
			if err := b.Append(first+i, ones); err != nil {
				return nil, err
			}
		}
		rows, err := b.Build()
		if err != nil {
			return nil, err
		}
		return batch.Of(rows), nil
	}

	initial, err := src(0)
	if err != nil {
		return err
	}
	tbl, err := db.CreateTable(ctx, "my_table", initial)
	if err != nil {
		return err
	}
	more, err := src(1000)
	if err != nil {
		return err
	}
	n, err := tbl.Add(ctx, more)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s has %d rows\n", tbl.Name(), n)

	names, err := db.TableNames(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "tables:", names)

	step("Nearest rows")
	reopened, err := db.OpenTable(ctx, "my_table")
	if err != nil {
		return err
	}
	results, err := reopened.Query().NearestTo(ones).Limit(10).Execute(ctx)
	if err != nil {
		return err
	}
	renderResults(out, results, true)

	step("Delete")
	deleted, err := reopened.Delete(ctx, "id > 24")
	if err != nil {
		return err
	}
	left, err := reopened.CountRows(ctx, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d rows, %d left\n", deleted, left)

	step("Drop")
	if err := db.DropTable(ctx, "my_table"); err != nil {
		return err
	}
	if err := db.DropDatabase(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Success.Render("dropped"), db.URI())
	return nil
}

func printScan(ctx context.Context, out io.Writer, tbl *vectable.Table, where string) error {
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
	}
	renderRows(out, rows)
	return nil
}
