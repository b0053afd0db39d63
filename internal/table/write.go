package table

import (
	"context"
	"time"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/conv"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/index"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/predicate"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// Add appends the rows of src and returns the table's live row count
// afterwards. Each non-empty batch becomes one fragment; all of them are
// committed together or not at all. The vector index is not rebuilt.
func (t *Table) Add(ctx context.Context, src batch.Source) (int, error) {
	if err := t.checkReady(); err != nil {
		return 0, err
	}
	return t.add(ctx, src)
}

func (t *Table) add(ctx context.Context, src batch.Source) (int, error) {
	sch := t.store.Snapshot().Schema()
	if err := schema.ValidateBatch(sch, src.Schema()); err != nil {
		return 0, err
	}

	var batches []*batch.Batch
	for b, err := range src.Batches() {
		if err != nil {
			return 0, err
		}
		projected, err := b.Project(sch)
		if err != nil {
			return 0, err
		}
		batches = append(batches, projected)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.store.Append(ctx, batches...)
	if err != nil {
		return 0, translate(err)
	}

	rows := t.store.Snapshot().NumRows()
	t.logger.Debug("rows added", "fragments", len(ids), "rows", rows)
	return int(rows), nil
}

// Delete tombstones every live row matching the predicate text and returns
// how many rows were deleted.
func (t *Table) Delete(ctx context.Context, where string) (int, error) {
	if err := t.checkReady(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.Snapshot()
	pred, err := predicate.Parse(where, snap.Schema())
	if err != nil {
		return 0, err
	}

	views, err := snap.Views(ctx, hasLiveRows)
	if err != nil {
		return 0, translate(err)
	}

	match := matcher(pred)
	var ids []model.RowID
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for off := range v.Live() {
			if match(v, off) {
				ids = append(ids, v.Info.FirstRowID+model.RowID(off))
			}
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := t.store.Tombstone(ctx, ids)
	if err != nil {
		return 0, translate(err)
	}

	t.logger.Debug("rows deleted", "predicate", pred.Canonical(), "rows", n)
	return n, nil
}

// IndexOptions configures BuildIndex.
type IndexOptions struct {
	Metric     distance.Metric
	Partitions int
	Seed       uint64
}

// BuildIndex trains a vector index over the live rows of the table and
// makes it the table's index, replacing any previous one. Builds take a
// slot from the resource controller.
func (t *Table) BuildIndex(ctx context.Context, opts IndexOptions) (index.Stats, error) {
	if err := t.checkReady(); err != nil {
		return index.Stats{}, err
	}

	if err := t.rc.AcquireBuild(ctx); err != nil {
		return index.Stats{}, err
	}
	defer t.rc.ReleaseBuild()

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.Snapshot()
	col := snap.Schema().VectorColumn()
	if col < 0 {
		return index.Stats{}, index.ErrNoVectorColumn
	}

	start := time.Now()
	views, err := snap.Views(ctx, nil)
	if err != nil {
		return index.Stats{}, translate(err)
	}

	ix, err := index.Build(ctx, views, col, snap.Schema().VectorDim(), index.Options{
		Metric:     opts.Metric,
		Partitions: opts.Partitions,
		Seed:       opts.Seed,
	})
	if err != nil {
		return index.Stats{}, err
	}

	data, err := ix.MarshalBinary()
	if err != nil {
		return index.Stats{}, err
	}

	partitions, err := conv.Uint32(ix.Partitions())
	if err != nil {
		return index.Stats{}, err
	}
	info, err := t.store.CommitIndex(ctx, data, manifest.IndexInfo{
		Watermark:  ix.Watermark(),
		Metric:     ix.Metric().String(),
		Partitions: partitions,
		Rows:       uint64(ix.Len()),
		CreatedAt:  ix.CreatedAt(),
	})
	if err != nil {
		return index.Stats{}, translate(err)
	}
	t.index.Store(ix)

	t.logger.Info("index built",
		"path", info.Path,
		"partitions", ix.Partitions(),
		"rows", ix.Len(),
		"metric", ix.Metric().String(),
		"duration", time.Since(start),
	)
	return index.ComputeStats(ix, t.store.Snapshot()), nil
}

// IndexStats reports how much of the table the current index covers. A
// table without an index reports every live row as unindexed.
func (t *Table) IndexStats() (index.Stats, error) {
	if err := t.checkReady(); err != nil {
		return index.Stats{}, err
	}
	return index.ComputeStats(t.index.Load(), t.store.Snapshot()), nil
}

func hasLiveRows(f manifest.FragmentInfo) bool {
	return f.Rows > f.Deletions.Count
}

// matcher adapts a predicate to fragment offsets without materializing
// rows. A nil predicate matches everything.
func matcher(p *predicate.Predicate) func(v *fragment.View, off int) bool {
	if p == nil {
		return func(*fragment.View, int) bool { return true }
	}
	return func(v *fragment.View, off int) bool {
		return p.Match(func(col int) model.Value { return v.Data.Value(col, off) })
	}
}
