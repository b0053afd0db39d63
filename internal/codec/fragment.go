package codec

import (
	"bytes"
	"encoding/binary"
	"iter"
	"math"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/internal/hash"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// Fragment is a decoded, read-only fragment. It owns its memory and stays
// valid after the blob it was decoded from is closed.
type Fragment struct {
	schema     *schema.Schema
	names      []string
	rows       int
	firstRowID model.RowID
	cols       []column
	size       int64
}

type column struct {
	typ     schema.DataType
	valid   []byte // nil: all valid
	i32     []int32
	offsets []uint32
	strs    []byte
	vecs    []float32
}

func (c *column) isNull(off int) bool {
	return c.valid != nil && c.valid[off/8]&(1<<(off%8)) == 0
}

// Decode parses and verifies a fragment blob written by Encode for schema s.
// The blob is not retained.
func Decode(data []byte, s *schema.Schema) (*Fragment, error) {
	if len(data) < headerSize+footerSize {
		return nil, corruptf("fragment too small (%d bytes)", len(data))
	}

	body := data[:len(data)-footerSize]
	if err := hash.VerifyCRC32C(body, binary.LittleEndian.Uint32(data[len(body):])); err != nil {
		return nil, corruptf("%v", err)
	}
	if !bytes.Equal(body[0:4], []byte(magic)) {
		return nil, corruptf("bad magic %q", body[0:4])
	}
	if v := binary.LittleEndian.Uint16(body[4:]); v != formatVersion {
		return nil, corruptf("unsupported format version %d", v)
	}

	rows := int(binary.LittleEndian.Uint32(body[8:]))
	ncols := int(binary.LittleEndian.Uint32(body[12:]))
	if ncols != s.NumColumns() {
		return nil, corruptf("fragment has %d columns, schema %d", ncols, s.NumColumns())
	}

	f := &Fragment{
		schema:     s,
		names:      s.Names(),
		rows:       rows,
		firstRowID: model.RowID(binary.LittleEndian.Uint64(body[16:])),
		cols:       make([]column, ncols),
	}

	pos := headerSize
	for i := 0; i < ncols; i++ {
		want := s.Column(i)

		if len(body)-pos < columnHeaderLen {
			return nil, corruptf("column %q: truncated header", want.Name)
		}
		hdr := body[pos : pos+columnHeaderLen]
		pos += columnHeaderLen

		typ := schema.TypeID(hdr[0])
		nullable := hdr[1] == 1
		comp := Compression(hdr[2])
		dim := int(binary.LittleEndian.Uint32(hdr[4:]))
		rawLen := int(binary.LittleEndian.Uint32(hdr[8:]))
		storedLen := int(binary.LittleEndian.Uint32(hdr[12:]))
		sum := binary.LittleEndian.Uint64(hdr[16:])

		if typ != want.Type.ID || dim != want.Type.Dim || nullable != want.Nullable {
			return nil, corruptf("column %q: stored layout does not match schema", want.Name)
		}
		if len(body)-pos < storedLen {
			return nil, corruptf("column %q: truncated payload", want.Name)
		}

		raw, err := decompress(body[pos:pos+storedLen], comp, rawLen)
		if err != nil {
			return nil, corruptf("column %q: %v", want.Name, err)
		}
		pos += storedLen

		if err := hash.VerifyXXH64(raw, sum); err != nil {
			return nil, corruptf("column %q: %v", want.Name, err)
		}

		col, err := decodeColumn(want, raw, rows)
		if err != nil {
			return nil, err
		}
		f.cols[i] = col
		f.size += int64(rawLen)
	}

	if pos != len(body) {
		return nil, corruptf("%d trailing bytes", len(body)-pos)
	}

	return f, nil
}

func decodeColumn(want schema.Column, raw []byte, rows int) (column, error) {
	col := column{typ: want.Type}

	if want.Nullable {
		n := (rows + 7) / 8
		if len(raw) < n {
			return col, corruptf("column %q: truncated validity", want.Name)
		}
		col.valid = bytes.Clone(raw[:n])
		raw = raw[n:]
	}

	switch want.Type.ID {
	case schema.TypeInt32:
		if len(raw) != rows*4 {
			return col, corruptf("column %q: bad int32 length", want.Name)
		}
		col.i32 = make([]int32, rows)
		for r := range col.i32 {
			col.i32[r] = int32(binary.LittleEndian.Uint32(raw[r*4:]))
		}

	case schema.TypeUtf8:
		n := (rows + 1) * 4
		if len(raw) < n {
			return col, corruptf("column %q: truncated offsets", want.Name)
		}
		col.offsets = make([]uint32, rows+1)
		for r := range col.offsets {
			col.offsets[r] = binary.LittleEndian.Uint32(raw[r*4:])
		}
		col.strs = bytes.Clone(raw[n:])
		prev := uint32(0)
		for _, o := range col.offsets {
			if o < prev || int(o) > len(col.strs) {
				return col, corruptf("column %q: bad string offsets", want.Name)
			}
			prev = o
		}

	case schema.TypeVector:
		n := rows * want.Type.Dim
		if len(raw) != n*4 {
			return col, corruptf("column %q: bad vector length", want.Name)
		}
		col.vecs = make([]float32, n)
		for j := range col.vecs {
			col.vecs[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
		}

	default:
		return col, corruptf("column %q: unsupported type %s", want.Name, want.Type)
	}

	return col, nil
}

// Schema returns the schema the fragment was decoded with.
func (f *Fragment) Schema() *schema.Schema { return f.schema }

// NumRows returns the number of rows, including tombstoned ones.
func (f *Fragment) NumRows() int { return f.rows }

// FirstRowID returns the row id of offset 0.
func (f *Fragment) FirstRowID() model.RowID { return f.firstRowID }

// SizeBytes approximates the decoded memory footprint.
func (f *Fragment) SizeBytes() int64 { return f.size }

// IsNull reports whether the value at (col, off) is null.
func (f *Fragment) IsNull(col, off int) bool { return f.cols[col].isNull(off) }

// Value returns the value at (col, off). Vector values alias fragment memory
// and must not be modified.
func (f *Fragment) Value(col, off int) model.Value {
	c := &f.cols[col]
	if c.isNull(off) {
		return model.Null()
	}
	switch c.typ.ID {
	case schema.TypeInt32:
		return model.Int32(c.i32[off])
	case schema.TypeUtf8:
		return model.String(string(c.strs[c.offsets[off]:c.offsets[off+1]]))
	case schema.TypeVector:
		return model.Vector(f.Vector(col, off))
	default:
		return model.Null()
	}
}

// Vector returns the vector at (col, off) without copying, or nil when null.
func (f *Fragment) Vector(col, off int) []float32 {
	c := &f.cols[col]
	if c.isNull(off) {
		return nil
	}
	dim := c.typ.Dim
	return c.vecs[off*dim : (off+1)*dim : (off+1)*dim]
}

// Row materializes the row at offset off.
func (f *Fragment) Row(off int) model.Row {
	values := make([]model.Value, len(f.cols))
	for i := range f.cols {
		values[i] = f.Value(i, off)
	}
	return model.Row{
		ID:     f.firstRowID + model.RowID(off),
		Fields: f.names,
		Values: values,
	}
}

// Rows lazily yields the rows at the given offsets, or every row when
// offsets is nil. The sequence can be ranged over any number of times.
func (f *Fragment) Rows(offsets []int) iter.Seq[model.Row] {
	return func(yield func(model.Row) bool) {
		if offsets == nil {
			for off := 0; off < f.rows; off++ {
				if !yield(f.Row(off)) {
					return
				}
			}
			return
		}
		for _, off := range offsets {
			if !yield(f.Row(off)) {
				return
			}
		}
	}
}

// Batch converts the fragment back into a batch with the fragment schema.
func (f *Fragment) Batch() (*batch.Batch, error) {
	cols := make([]batch.Column, len(f.cols))

	for i := range f.cols {
		c := &f.cols[i]

		var valid []bool
		if c.valid != nil {
			valid = make([]bool, f.rows)
			for r := range valid {
				valid[r] = !c.isNull(r)
			}
		}

		switch c.typ.ID {
		case schema.TypeInt32:
			cols[i] = &batch.Int32Column{Values: append([]int32(nil), c.i32...), Valid: valid}
		case schema.TypeUtf8:
			values := make([]string, f.rows)
			for r := range values {
				values[r] = string(c.strs[c.offsets[r]:c.offsets[r+1]])
			}
			cols[i] = &batch.Utf8Column{Values: values, Valid: valid}
		case schema.TypeVector:
			values := make([][]float32, f.rows)
			for r := range values {
				if v := f.Vector(i, r); v != nil {
					values[r] = append([]float32(nil), v...)
				}
			}
			cols[i] = &batch.VectorColumn{Dim: c.typ.Dim, Values: values}
		}
	}

	return batch.New(f.schema, cols...)
}
