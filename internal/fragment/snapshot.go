package fragment

import (
	"context"
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vectable/internal/codec"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
	"golang.org/x/sync/errgroup"
)

// Snapshot is an immutable view of one committed table version.
// It remains readable after later commits.
type Snapshot struct {
	store   *Store
	m       *manifest.Manifest
	deleted map[model.FragmentID]*roaring.Bitmap // read-only
}

// Schema returns the table schema.
func (s *Snapshot) Schema() *schema.Schema { return s.m.Schema }

// Version returns the manifest version of the snapshot.
func (s *Snapshot) Version() uint64 { return s.m.ID }

// Fragments returns the committed fragments in row id order.
// The slice must not be modified.
func (s *Snapshot) Fragments() []manifest.FragmentInfo { return s.m.Fragments }

// Index returns the committed index descriptor, or nil.
func (s *Snapshot) Index() *manifest.IndexInfo { return s.m.Index }

// NumRows returns the number of live rows.
func (s *Snapshot) NumRows() uint64 { return s.m.LiveRows() }

// NextRowID returns the id the next appended row will get.
func (s *Snapshot) NextRowID() model.RowID { return s.m.NextRowID }

// Deleted returns the tombstones of a fragment, or nil when none.
// The bitmap must not be modified.
func (s *Snapshot) Deleted(id model.FragmentID) *roaring.Bitmap { return s.deleted[id] }

// Locate maps a row id to its fragment and offset.
func (s *Snapshot) Locate(id model.RowID) (model.Location, bool) {
	frags := s.m.Fragments
	// Fragments are never empty, so ranges are contiguous and ascending.
	i := sort.Search(len(frags), func(i int) bool { return frags[i].LastRowID() >= id })
	if i == len(frags) || !frags[i].Contains(id) {
		return model.Location{}, false
	}
	return model.Location{Fragment: frags[i].ID, Offset: uint32(id - frags[i].FirstRowID)}, true
}

// IsDeleted reports whether a row id is unknown or tombstoned.
func (s *Snapshot) IsDeleted(id model.RowID) bool {
	loc, ok := s.Locate(id)
	if !ok {
		return true
	}
	bm := s.deleted[loc.Fragment]
	return bm != nil && bm.Contains(loc.Offset)
}

// View is a loaded fragment together with its tombstones at the snapshot.
type View struct {
	Info    manifest.FragmentInfo
	Data    *codec.Fragment
	Deleted *roaring.Bitmap // nil: nothing deleted
}

// IsDeleted reports whether the row at off is tombstoned.
func (v *View) IsDeleted(off int) bool {
	return v.Deleted != nil && v.Deleted.Contains(uint32(off))
}

// LiveRows returns the number of rows that are not tombstoned.
func (v *View) LiveRows() int {
	if v.Deleted == nil {
		return int(v.Info.Rows)
	}
	return int(v.Info.Rows) - int(v.Deleted.GetCardinality())
}

// Live yields the offsets of all live rows in order.
func (v *View) Live() iter.Seq[int] {
	return func(yield func(int) bool) {
		for off := 0; off < int(v.Info.Rows); off++ {
			if v.IsDeleted(off) {
				continue
			}
			if !yield(off) {
				return
			}
		}
	}
}

// View loads one fragment.
func (s *Snapshot) View(ctx context.Context, id model.FragmentID) (*View, error) {
	info, ok := s.m.Fragment(id)
	if !ok {
		return nil, ErrNotFound
	}
	data, err := s.store.load(ctx, s.m.Schema, info)
	if err != nil {
		return nil, err
	}
	return &View{Info: info, Data: data, Deleted: s.deleted[id]}, nil
}

// Views loads the fragments accepted by keep (all when keep is nil) in
// parallel and returns them in row id order.
func (s *Snapshot) Views(ctx context.Context, keep func(manifest.FragmentInfo) bool) ([]*View, error) {
	var infos []manifest.FragmentInfo
	for _, f := range s.m.Fragments {
		if keep == nil || keep(f) {
			infos = append(infos, f)
		}
	}

	views := make([]*View, len(infos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.store.loadConcurrency)
	for i, info := range infos {
		g.Go(func() error {
			data, err := s.store.load(ctx, s.m.Schema, info)
			if err != nil {
				return err
			}
			views[i] = &View{Info: info, Data: data, Deleted: s.deleted[info.ID]}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Scan yields the live rows of the snapshot in insertion order. Rows for
// which filter returns false are skipped; a nil filter accepts every row.
// Fragments are loaded one at a time as the sequence advances.
func Scan(ctx context.Context, snap *Snapshot, filter func(model.Row) bool) iter.Seq2[model.Row, error] {
	return func(yield func(model.Row, error) bool) {
		for _, info := range snap.m.Fragments {
			if err := ctx.Err(); err != nil {
				yield(model.Row{}, err)
				return
			}
			if info.Rows == info.Deletions.Count {
				continue
			}
			v, err := snap.View(ctx, info.ID)
			if err != nil {
				yield(model.Row{}, err)
				return
			}
			for off := range v.Live() {
				row := v.Data.Row(off)
				if filter != nil && !filter(row) {
					continue
				}
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}
