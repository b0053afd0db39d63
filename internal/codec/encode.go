package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/internal/conv"
	"github.com/hupe1980/vectable/internal/hash"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

const (
	magic         = "VTF1"
	formatVersion = 1

	headerSize      = 24
	columnHeaderLen = 24
	footerSize      = 4
)

// Encode serializes b into a fragment blob. b must carry the columns of s in
// schema order (see batch.Batch.Project). Rows are numbered from firstRowID.
//
// Ragged vectors fail with a *Error of kind WrongVectorLength, NaN or
// infinite vector elements with kind NonFiniteValue and nulls in
// non-nullable columns with kind NullValue. Nothing is encoded in that case.
func Encode(s *schema.Schema, b *batch.Batch, firstRowID model.RowID, c Compression) ([]byte, error) {
	if b.NumColumns() != s.NumColumns() {
		return nil, fmt.Errorf("codec: batch has %d columns, schema %d", b.NumColumns(), s.NumColumns())
	}
	if err := Validate(s, b); err != nil {
		return nil, err
	}

	rows, err := conv.Uint32(b.NumRows())
	if err != nil {
		return nil, &Error{Kind: TooLarge, Column: "*"}
	}

	out := make([]byte, headerSize, headerSize+estimateSize(s, b.NumRows()))
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint16(out[4:], formatVersion)
	binary.LittleEndian.PutUint16(out[6:], 0)
	binary.LittleEndian.PutUint32(out[8:], rows)
	binary.LittleEndian.PutUint32(out[12:], conv.MustUint32(s.NumColumns()))
	binary.LittleEndian.PutUint64(out[16:], uint64(firstRowID))

	for i := 0; i < s.NumColumns(); i++ {
		col := s.Column(i)

		raw, err := encodeColumn(col, b.Column(i), b.NumRows())
		if err != nil {
			return nil, err
		}

		stored, used, err := compress(raw, c)
		if err != nil {
			return nil, fmt.Errorf("codec: compress column %q: %w", col.Name, err)
		}

		rawLen, err1 := conv.Uint32(len(raw))
		storedLen, err2 := conv.Uint32(len(stored))
		if err1 != nil || err2 != nil {
			return nil, &Error{Kind: TooLarge, Column: col.Name}
		}

		var hdr [columnHeaderLen]byte
		hdr[0] = byte(col.Type.ID)
		if col.Nullable {
			hdr[1] = 1
		}
		hdr[2] = byte(used)
		binary.LittleEndian.PutUint32(hdr[4:], conv.MustUint32(col.Type.Dim))
		binary.LittleEndian.PutUint32(hdr[8:], rawLen)
		binary.LittleEndian.PutUint32(hdr[12:], storedLen)
		binary.LittleEndian.PutUint64(hdr[16:], hash.XXH64(raw))

		out = append(out, hdr[:]...)
		out = append(out, stored...)
	}

	return binary.LittleEndian.AppendUint32(out, hash.CRC32C(out)), nil
}

// Validate checks b against the constraints Encode enforces without
// producing any output.
func Validate(s *schema.Schema, b *batch.Batch) error {
	for i := 0; i < s.NumColumns(); i++ {
		col := s.Column(i)
		data := b.Column(i)

		for r := 0; r < b.NumRows(); r++ {
			if data.IsNull(r) {
				if !col.Nullable {
					return &Error{Kind: NullValue, Column: col.Name, Row: r}
				}
				continue
			}
			if col.Type.IsVector() {
				vec := data.Value(r).Vec
				if n := len(vec); n != col.Type.Dim {
					return &Error{Kind: WrongVectorLength, Column: col.Name, Row: r, Expected: col.Type.Dim, Actual: n}
				}
				for j, x := range vec {
					if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
						return &Error{Kind: NonFiniteValue, Column: col.Name, Row: r, Actual: j}
					}
				}
			}
		}
	}
	return nil
}

func estimateSize(s *schema.Schema, rows int) int {
	n := footerSize
	for _, col := range s.Columns() {
		n += columnHeaderLen
		switch col.Type.ID {
		case schema.TypeVector:
			n += rows * col.Type.Dim * 4
		default:
			n += rows * 8
		}
	}
	return n
}

func encodeColumn(col schema.Column, data batch.Column, rows int) ([]byte, error) {
	var raw []byte

	if col.Nullable {
		bitmap := make([]byte, (rows+7)/8)
		for r := 0; r < rows; r++ {
			if !data.IsNull(r) {
				bitmap[r/8] |= 1 << (r % 8)
			}
		}
		raw = append(raw, bitmap...)
	}

	switch col.Type.ID {
	case schema.TypeInt32:
		for r := 0; r < rows; r++ {
			raw = binary.LittleEndian.AppendUint32(raw, uint32(data.Value(r).I32))
		}

	case schema.TypeUtf8:
		var strs []byte
		raw = binary.LittleEndian.AppendUint32(raw, 0)
		for r := 0; r < rows; r++ {
			strs = append(strs, data.Value(r).Str...)
			end, err := conv.Uint32(len(strs))
			if err != nil {
				return nil, &Error{Kind: TooLarge, Column: col.Name}
			}
			raw = binary.LittleEndian.AppendUint32(raw, end)
		}
		raw = append(raw, strs...)

	case schema.TypeVector:
		dim := col.Type.Dim
		for r := 0; r < rows; r++ {
			vec := data.Value(r).Vec
			if vec == nil {
				raw = append(raw, make([]byte, dim*4)...)
				continue
			}
			for _, f := range vec {
				raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(f))
			}
		}

	default:
		return nil, fmt.Errorf("codec: column %q: unsupported type %s", col.Name, col.Type)
	}

	return raw, nil
}
