package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/ui"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		metric     string
		partitions int
		seed       uint64
		statsOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "index <table>",
		Short: "Build the vector index of a table",
		Long: `Train an IVF index over the vector column of a table. Rows added later
are still found by queries; they are searched exactly until the next build.

With --stats the current index coverage is printed and nothing is built.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}

			var stats vectable.IndexStats
			if statsOnly {
				stats, err = tbl.IndexStats()
			} else {
				m, perr := distance.ParseMetric(metric)
				if perr != nil {
					return perr
				}
				opts := []vectable.IndexOption{vectable.WithIndexMetric(m), vectable.WithPartitions(partitions)}
				if cmd.Flags().Changed("seed") {
					opts = append(opts, vectable.WithIndexSeed(seed))
				}
				stats, err = tbl.CreateIndex(ctx, opts...)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stats.Indexed {
				fmt.Fprintf(out, "%s has no index (%d rows)\n", tbl.Name(), stats.UnindexedRows)
				return nil
			}
			fmt.Fprint(out, ui.KeyValue(
				[2]string{"table", tbl.Name()},
				[2]string{"metric", stats.Metric.String()},
				[2]string{"partitions", fmt.Sprint(stats.Partitions)},
				[2]string{"indexed rows", fmt.Sprint(stats.IndexedRows)},
				[2]string{"unindexed rows", fmt.Sprint(stats.UnindexedRows)},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&metric, "metric", "m", "l2", "distance metric (l2, cosine, dot)")
	cmd.Flags().IntVarP(&partitions, "partitions", "p", 0, "number of IVF partitions (0 derives it from the row count)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "k-means seed for reproducible builds")
	cmd.Flags().BoolVar(&statsOnly, "stats", false, "print index coverage only")
	return cmd
}
