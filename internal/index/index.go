package index

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/conv"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/kmeans"
	"github.com/hupe1980/vectable/model"
)

const (
	// DefaultNProbes is the number of partitions probed before the search
	// widens to reach k results.
	DefaultNProbes = 20
	// DefaultMaxIterations bounds k-means training.
	DefaultMaxIterations = 25

	maxPartitions       = 4096
	samplesPerPartition = 256
)

// Entry points back to a row. The index never stores row data.
type Entry struct {
	Fragment model.FragmentID
	Offset   uint32
}

// Index is an IVF index: vectors are grouped into partitions around
// k-means centroids. It is immutable once built.
type Index struct {
	metric    distance.Metric
	dim       int
	watermark model.FragmentID
	createdAt time.Time

	centroids []float32 // partitions * dim
	offsets   []uint32  // partitions + 1; entries[offsets[p]:offsets[p+1]] belong to p
	entries   []Entry
}

// Metric returns the metric the index was trained with.
func (ix *Index) Metric() distance.Metric { return ix.metric }

// Dim returns the vector dimension.
func (ix *Index) Dim() int { return ix.dim }

// Watermark returns the highest fragment id covered by the index.
func (ix *Index) Watermark() model.FragmentID { return ix.watermark }

// Partitions returns the number of partitions.
func (ix *Index) Partitions() int { return len(ix.offsets) - 1 }

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.entries) }

// CreatedAt returns the build time.
func (ix *Index) CreatedAt() time.Time { return ix.createdAt }

// Options configures Build.
type Options struct {
	// Metric used for training. Defaults to L2.
	Metric distance.Metric
	// Partitions is the number of IVF lists. 0 picks sqrt(n).
	Partitions int
	// MaxIterations bounds k-means. 0 uses DefaultMaxIterations.
	MaxIterations int
	// Seed makes training reproducible.
	Seed uint64
}

// Build trains an index over the live, non-null vectors of column in views.
// The watermark is the highest fragment id among views, so fragments that
// are entirely deleted still count as covered.
func Build(ctx context.Context, views []*fragment.View, column, dim int, opts Options) (*Index, error) {
	if column < 0 {
		return nil, ErrNoVectorColumn
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	ix := &Index{
		metric:    opts.Metric,
		dim:       dim,
		createdAt: time.Now(),
	}

	var (
		entries []Entry
		vectors []float32
	)
	for _, v := range views {
		ix.watermark = max(ix.watermark, v.Info.ID)
		for off := range v.Live() {
			vec := v.Data.Vector(column, off)
			if vec == nil {
				continue
			}
			entries = append(entries, Entry{Fragment: v.Info.ID, Offset: conv.MustUint32(off)})
			vectors = append(vectors, vec...)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	n := len(entries)
	if n == 0 {
		ix.offsets = []uint32{0}
		return ix, nil
	}

	parts := opts.Partitions
	if parts <= 0 {
		parts = int(math.Sqrt(float64(n)))
	}
	parts = max(1, min(parts, n, maxPartitions))

	centroids, err := kmeans.TrainKMeans(ctx, sample(vectors, dim, parts*samplesPerPartition), dim, parts, opts.Metric, opts.MaxIterations, kmeans.WithSeed(opts.Seed))
	if err != nil {
		return nil, err
	}
	ix.centroids = centroids
	parts = len(centroids) / dim

	assign := make([]int, n)
	counts := make([]uint32, parts)
	for i := range entries {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p, err := kmeans.AssignPartition(vectors[i*dim:(i+1)*dim], centroids, dim, opts.Metric)
		if err != nil {
			return nil, err
		}
		assign[i] = p
		counts[p]++
	}

	ix.offsets = make([]uint32, parts+1)
	for p := 0; p < parts; p++ {
		ix.offsets[p+1] = ix.offsets[p] + counts[p]
	}

	// Counting sort keeps entries in row order within each partition.
	ix.entries = make([]Entry, n)
	next := make([]uint32, parts)
	copy(next, ix.offsets[:parts])
	for i, e := range entries {
		p := assign[i]
		ix.entries[next[p]] = e
		next[p]++
	}

	return ix, nil
}

// sample returns at most limit vectors, evenly spaced.
func sample(vectors []float32, dim, limit int) []float32 {
	n := len(vectors) / dim
	if n <= limit {
		return vectors
	}
	out := make([]float32, 0, limit*dim)
	step := float64(n) / float64(limit)
	for i := 0; i < limit; i++ {
		j := int(float64(i) * step)
		out = append(out, vectors[j*dim:(j+1)*dim]...)
	}
	return out
}

// Stats describes index coverage of a snapshot.
type Stats struct {
	Indexed       bool // an index is loaded, possibly with no partitions
	IndexedRows   uint64
	UnindexedRows uint64
	Partitions    int
	Metric        distance.Metric
	Watermark     model.FragmentID
}

// ComputeStats reports how many live rows of snap the index covers. A nil
// index covers nothing.
func ComputeStats(ix *Index, snap *fragment.Snapshot) Stats {
	var st Stats
	if ix != nil {
		st.Indexed = true
		st.Partitions = ix.Partitions()
		st.Metric = ix.metric
		st.Watermark = ix.watermark
	}
	for _, f := range snap.Fragments() {
		live := uint64(f.Rows) - uint64(f.Deletions.Count)
		if f.ID <= st.Watermark {
			st.IndexedRows += live
		} else {
			st.UnindexedRows += live
		}
	}
	return st
}
