package batch

import (
	"errors"
	"iter"

	"github.com/hupe1980/vectable/schema"
)

// ErrNoSchema is returned when a Source cannot report a schema.
var ErrNoSchema = errors.New("batch: source has no schema")

// Source is anything that can enumerate batches conforming to one schema.
//
// Batches must be restartable: every call returns a fresh sequence.
type Source interface {
	Schema() *schema.Schema
	Batches() iter.Seq2[*Batch, error]
}

type sliceSource struct {
	schema  *schema.Schema
	batches []*Batch
}

func (s *sliceSource) Schema() *schema.Schema { return s.schema }

func (s *sliceSource) Batches() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for _, b := range s.batches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Of returns a Source over the given batches. The schema is taken from the
// first batch; with no batches the Source has a nil schema.
func Of(batches ...*Batch) Source {
	var s *schema.Schema
	if len(batches) > 0 {
		s = batches[0].Schema()
	}
	return &sliceSource{schema: s, batches: batches}
}

// NewSource returns a Source with an explicit schema, which may be used with
// zero batches.
func NewSource(s *schema.Schema, batches ...*Batch) Source {
	return &sliceSource{schema: s, batches: batches}
}

type seqSource struct {
	schema *schema.Schema
	seq    func() iter.Seq2[*Batch, error]
}

func (s *seqSource) Schema() *schema.Schema            { return s.schema }
func (s *seqSource) Batches() iter.Seq2[*Batch, error] { return s.seq() }

// FromFunc returns a Source whose batches are produced by fn on every call
// to Batches.
func FromFunc(s *schema.Schema, fn func() iter.Seq2[*Batch, error]) Source {
	return &seqSource{schema: s, seq: fn}
}

// Collect reads every batch of src.
func Collect(src Source) ([]*Batch, error) {
	var out []*Batch
	for b, err := range src.Batches() {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
