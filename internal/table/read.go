package table

import (
	"context"
	"iter"

	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/index"
	"github.com/hupe1980/vectable/internal/predicate"
	"github.com/hupe1980/vectable/model"
)

// Query describes a read. With a Vector it is a k nearest neighbour search
// returning at most Limit rows; without one it is a filtered scan in
// insertion order, unlimited when Limit is 0.
type Query struct {
	Vector  []float32
	Limit   int
	Offset  int
	Where   string
	Metric  distance.Metric
	NProbes int
}

// Result is one query hit. Distance is zero for scans.
type Result struct {
	RowID    model.RowID
	Distance float32
	Row      model.Row
}

// Query runs q against the latest committed snapshot.
//
// The vector index is used when its metric matches q.Metric; otherwise, or
// when no index exists, the search is exact. Fragments added after the last
// index build are always searched exhaustively.
func (t *Table) Query(ctx context.Context, q Query) ([]Result, error) {
	if err := t.checkReady(); err != nil {
		return nil, err
	}

	snap := t.store.Snapshot()
	pred, err := parseWhere(q.Where, snap)
	if err != nil {
		return nil, err
	}
	offset := max(q.Offset, 0)

	if q.Vector == nil {
		return t.scanQuery(ctx, snap, pred, q.Limit, offset)
	}
	if q.Limit <= 0 {
		return nil, ErrInvalidK
	}

	ix := t.index.Load()
	if ix != nil && ix.Metric() != q.Metric {
		ix = nil
	}

	iq := index.Query{
		Vector:  q.Vector,
		K:       q.Limit + offset,
		Metric:  q.Metric,
		NProbes: q.NProbes,
		Column:  snap.Schema().VectorColumn(),
	}
	if pred != nil {
		iq.Filter = matcher(pred)
	}

	candidates, err := index.Search(ctx, ix, snap, iq)
	if err != nil {
		return nil, translate(err)
	}
	if offset >= len(candidates) {
		return []Result{}, nil
	}
	candidates = candidates[offset:]

	views := make(map[model.FragmentID]*fragment.View)
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		loc, _ := snap.Locate(c.RowID)
		v, ok := views[loc.Fragment]
		if !ok {
			v, err = snap.View(ctx, loc.Fragment)
			if err != nil {
				return nil, translate(err)
			}
			views[loc.Fragment] = v
		}
		results = append(results, Result{
			RowID:    c.RowID,
			Distance: c.Distance,
			Row:      v.Data.Row(int(loc.Offset)),
		})
	}

	t.logger.Debug("query executed", "k", q.Limit, "results", len(results), "indexed", ix != nil)
	return results, nil
}

func (t *Table) scanQuery(ctx context.Context, snap *fragment.Snapshot, pred *predicate.Predicate, limit, offset int) ([]Result, error) {
	results := []Result{}
	skipped := 0
	for row, err := range fragment.Scan(ctx, snap, evaluator(pred)) {
		if err != nil {
			return nil, translate(err)
		}
		if skipped < offset {
			skipped++
			continue
		}
		results = append(results, Result{RowID: row.ID, Row: row})
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}

// Scan returns the live rows matching where (all rows when empty) in
// insertion order. The predicate is parsed eagerly; the sequence reads the
// snapshot current at the time of the call and can be ranged over again.
func (t *Table) Scan(ctx context.Context, where string) (iter.Seq2[model.Row, error], error) {
	if err := t.checkReady(); err != nil {
		return nil, err
	}

	snap := t.store.Snapshot()
	pred, err := parseWhere(where, snap)
	if err != nil {
		return nil, err
	}

	return func(yield func(model.Row, error) bool) {
		for row, err := range fragment.Scan(ctx, snap, evaluator(pred)) {
			if !yield(row, translate(err)) {
				return
			}
			if err != nil {
				return
			}
		}
	}, nil
}

// CountRows returns the number of live rows matching where, or all live
// rows when where is empty.
func (t *Table) CountRows(ctx context.Context, where string) (int, error) {
	if err := t.checkReady(); err != nil {
		return 0, err
	}

	snap := t.store.Snapshot()
	pred, err := parseWhere(where, snap)
	if err != nil {
		return 0, err
	}
	if pred == nil {
		return int(snap.NumRows()), nil
	}

	views, err := snap.Views(ctx, hasLiveRows)
	if err != nil {
		return 0, translate(err)
	}

	match := matcher(pred)
	n := 0
	for _, v := range views {
		for off := range v.Live() {
			if match(v, off) {
				n++
			}
		}
	}
	return n, nil
}

func parseWhere(where string, snap *fragment.Snapshot) (*predicate.Predicate, error) {
	if where == "" {
		return nil, nil
	}
	return predicate.Parse(where, snap.Schema())
}

func evaluator(p *predicate.Predicate) func(model.Row) bool {
	if p == nil {
		return nil
	}
	return p.Evaluate
}
