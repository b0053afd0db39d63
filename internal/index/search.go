package index

import (
	"context"
	"errors"

	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/kmeans"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/queue"
	"github.com/hupe1980/vectable/model"
	"golang.org/x/sync/errgroup"
)

// Query is a k nearest neighbour request.
type Query struct {
	Vector []float32
	K      int
	Metric distance.Metric
	// NProbes is the minimum number of partitions probed. 0 uses
	// DefaultNProbes.
	NProbes int
	// Column is the schema index of the vector column.
	Column int
	// Filter, when set, restricts results to rows it accepts.
	Filter func(v *fragment.View, off int) bool
}

// Candidate is one search hit.
type Candidate struct {
	RowID    model.RowID
	Distance float32
}

// Search returns the K rows of snap closest to the query, ordered by
// ascending distance and then by row id. Rows covered by ix are found
// through the index; fragments beyond its watermark are scanned
// exhaustively. ix may be nil.
//
// Tombstoned rows and rows with a null vector never match. The result holds
// min(K, matching rows) candidates: if the probed partitions do not yield K
// matches, further partitions are probed in order of centroid distance.
func Search(ctx context.Context, ix *Index, snap *fragment.Snapshot, q Query) ([]Candidate, error) {
	if q.Column < 0 {
		return nil, ErrNoVectorColumn
	}
	dim := snap.Schema().Column(q.Column).Type.Dim
	if len(q.Vector) != dim {
		return nil, &Error{Kind: DimensionMismatch, Expected: dim, Actual: len(q.Vector)}
	}
	if q.K <= 0 {
		return nil, nil
	}
	distFunc, err := distance.Provider(q.Metric)
	if err != nil {
		return nil, err
	}

	var watermark model.FragmentID
	if ix != nil && ix.dim == dim {
		watermark = ix.watermark
	} else {
		ix = nil
	}

	top := queue.NewTopK(q.K)

	if ix != nil {
		if err := searchIndexed(ctx, ix, snap, q, distFunc, top); err != nil {
			return nil, err
		}
	}

	fresh, err := snap.Views(ctx, func(f manifest.FragmentInfo) bool {
		return f.ID > watermark && f.Rows > f.Deletions.Count
	})
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		partial, err := scanViews(ctx, fresh, q, distFunc)
		if err != nil {
			return nil, err
		}
		top.Merge(partial)
	}

	items := top.Sorted()
	out := make([]Candidate, len(items))
	for i, it := range items {
		out[i] = Candidate{RowID: model.RowID(it.ID), Distance: it.Distance}
	}
	return out, nil
}

func searchIndexed(ctx context.Context, ix *Index, snap *fragment.Snapshot, q Query, distFunc distance.Func, top *queue.TopK) error {
	parts := ix.Partitions()
	if parts == 0 {
		return nil
	}

	order, err := kmeans.FindClosestCentroids(q.Vector, ix.centroids, ix.dim, parts, q.Metric)
	if err != nil {
		return err
	}

	nprobes := q.NProbes
	if nprobes <= 0 {
		nprobes = DefaultNProbes
	}

	views := make(map[model.FragmentID]*fragment.View)
	hits := 0

	for i, p := range order {
		if i >= nprobes && hits >= q.K {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, e := range ix.entries[ix.offsets[p]:ix.offsets[p+1]] {
			v, ok := views[e.Fragment]
			if !ok {
				loaded, err := snap.View(ctx, e.Fragment)
				if err != nil && !errors.Is(err, fragment.ErrNotFound) {
					return err
				}
				v = loaded
				views[e.Fragment] = v
			}
			if v == nil {
				continue
			}

			off := int(e.Offset)
			if v.IsDeleted(off) {
				continue
			}
			if q.Filter != nil && !q.Filter(v, off) {
				continue
			}
			vec := v.Data.Vector(q.Column, off)
			if vec == nil {
				continue
			}
			hits++
			top.Push(queue.Item{
				ID:       uint64(v.Info.FirstRowID) + uint64(off),
				Distance: distFunc(q.Vector, vec),
			})
		}
	}
	return nil
}

// scanViews computes exact distances over views, one goroutine per view.
func scanViews(ctx context.Context, views []*fragment.View, q Query, distFunc distance.Func) (*queue.TopK, error) {
	partials := make([]*queue.TopK, len(views))

	g, ctx := errgroup.WithContext(ctx)
	for i, v := range views {
		g.Go(func() error {
			local := queue.NewTopK(q.K)
			n := 0
			for off := range v.Live() {
				if n++; n%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if q.Filter != nil && !q.Filter(v, off) {
					continue
				}
				vec := v.Data.Vector(q.Column, off)
				if vec == nil {
					continue
				}
				local.Push(queue.Item{
					ID:       uint64(v.Info.FirstRowID) + uint64(off),
					Distance: distFunc(q.Vector, vec),
				})
			}
			partials[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	top := queue.NewTopK(q.K)
	for _, p := range partials {
		top.Merge(p)
	}
	return top, nil
}
