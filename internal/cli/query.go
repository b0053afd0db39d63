package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/distance"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		vector  string
		fill    float32
		k       int
		offset  int
		where   string
		metric  string
		nprobes int
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Find the rows nearest to a vector",
		Long: `Find the k rows whose vectors are nearest to the query vector.

The query vector is given with --vector as comma separated numbers, or with
--fill as a single value repeated to the dimension of the table.

Examples:
  vectable query my_table --fill 1 -k 5
  vectable query people --vector 0.1,0.2,0.3 --metric cosine --where "id > 2"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tbl, err := a.openTable(ctx, args[0])
			if err != nil {
				return err
			}

			m, err := distance.ParseMetric(metric)
			if err != nil {
				return err
			}

			var vec []float32
			switch {
			case vector != "":
				if vec, err = parseVector(vector); err != nil {
					return err
				}
			case cmd.Flags().Changed("fill"):
				dim := tbl.Schema().VectorDim()
				if dim <= 0 {
					return vectable.ErrNoVectorColumn
				}
				vec = make([]float32, dim)
				for i := range vec {
					vec[i] = fill
				}
			default:
				return fmt.Errorf("one of --vector or --fill is required")
			}

			results, err := tbl.Query().
				NearestTo(vec).
				Limit(k).
				Offset(offset).
				Where(where).
				Metric(m).
				NProbes(nprobes).
				Execute(ctx)
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), results, true)
			return nil
		},
	}

	cmd.Flags().StringVar(&vector, "vector", "", "query vector, e.g. 0.1,0.2,0.3")
	cmd.Flags().Float32Var(&fill, "fill", 0, "query with a vector of this value in every dimension")
	cmd.Flags().IntVarP(&k, "k", "k", vectable.DefaultLimit, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip the first results")
	cmd.Flags().StringVarP(&where, "where", "w", "", "filter expression")
	cmd.Flags().StringVarP(&metric, "metric", "m", "l2", "distance metric (l2, cosine, dot)")
	cmd.Flags().IntVar(&nprobes, "nprobes", 0, "IVF partitions to probe (0 for the default)")
	return cmd
}
