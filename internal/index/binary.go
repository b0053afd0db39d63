package index

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/hash"
	"github.com/hupe1980/vectable/model"
)

const (
	magic         = "VTIX"
	formatVersion = 1

	// magic(4) version(2) metric(1) pad(1) dim(4) partitions(4)
	// watermark(8) entries(8) createdAt(8)
	headerSize = 40
	entrySize  = 12
)

// MarshalBinary encodes the index. The layout is a fixed header, the
// centroids, the partition offsets, the entries and a CRC32C footer, all
// little-endian.
func (ix *Index) MarshalBinary() ([]byte, error) {
	parts := ix.Partitions()
	size := headerSize + len(ix.centroids)*4 + len(ix.offsets)*4 + len(ix.entries)*entrySize + 4
	buf := make([]byte, headerSize, size)

	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:], formatVersion)
	buf[6] = byte(ix.metric)
	binary.LittleEndian.PutUint32(buf[8:], uint32(ix.dim))
	binary.LittleEndian.PutUint32(buf[12:], uint32(parts))
	binary.LittleEndian.PutUint64(buf[16:], uint64(ix.watermark))
	binary.LittleEndian.PutUint64(buf[24:], uint64(len(ix.entries)))
	binary.LittleEndian.PutUint64(buf[32:], uint64(ix.createdAt.UnixNano()))

	for _, c := range ix.centroids {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	for _, o := range ix.offsets {
		buf = binary.LittleEndian.AppendUint32(buf, o)
	}
	for _, e := range ix.entries {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(e.Fragment))
		buf = binary.LittleEndian.AppendUint32(buf, e.Offset)
	}

	return binary.LittleEndian.AppendUint32(buf, hash.CRC32C(buf)), nil
}

// Unmarshal decodes an index written by MarshalBinary.
func Unmarshal(data []byte) (*Index, error) {
	if len(data) < headerSize+4 {
		return nil, corruptf("index too small (%d bytes)", len(data))
	}
	body := data[:len(data)-4]
	if err := hash.VerifyCRC32C(body, binary.LittleEndian.Uint32(data[len(body):])); err != nil {
		return nil, corruptf("%v", err)
	}
	if !bytes.Equal(body[0:4], []byte(magic)) {
		return nil, corruptf("bad magic %q", body[0:4])
	}
	if v := binary.LittleEndian.Uint16(body[4:]); v != formatVersion {
		return nil, corruptf("unsupported format version %d", v)
	}

	metric := distance.Metric(body[6])
	if _, err := distance.Provider(metric); err != nil {
		return nil, corruptf("%v", err)
	}
	dim := int(binary.LittleEndian.Uint32(body[8:]))
	parts := int(binary.LittleEndian.Uint32(body[12:]))
	n := binary.LittleEndian.Uint64(body[24:])

	want := uint64(headerSize) + uint64(parts)*uint64(dim)*4 + uint64(parts+1)*4 + n*entrySize
	if uint64(len(body)) != want {
		return nil, corruptf("size %d does not match layout %d", len(body), want)
	}

	ix := &Index{
		metric:    metric,
		dim:       dim,
		watermark: model.FragmentID(binary.LittleEndian.Uint64(body[16:])),
		createdAt: time.Unix(0, int64(binary.LittleEndian.Uint64(body[32:]))),
		centroids: make([]float32, parts*dim),
		offsets:   make([]uint32, parts+1),
		entries:   make([]Entry, n),
	}

	pos := headerSize
	for i := range ix.centroids {
		ix.centroids[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[pos:]))
		pos += 4
	}
	for i := range ix.offsets {
		ix.offsets[i] = binary.LittleEndian.Uint32(body[pos:])
		pos += 4
		if i > 0 && ix.offsets[i] < ix.offsets[i-1] {
			return nil, corruptf("partition offsets are not ascending")
		}
	}
	if uint64(ix.offsets[parts]) != n {
		return nil, corruptf("partition offsets cover %d of %d entries", ix.offsets[parts], n)
	}
	for i := range ix.entries {
		ix.entries[i] = Entry{
			Fragment: model.FragmentID(binary.LittleEndian.Uint64(body[pos:])),
			Offset:   binary.LittleEndian.Uint32(body[pos+8:]),
		}
		pos += entrySize
	}

	return ix, nil
}
