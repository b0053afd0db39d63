package manifest

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/vectable/internal/hash"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

const (
	binaryMagic      = 0x464d5456 // "VTMF"
	binaryVersion    = 1
	binaryHeaderSize = 16
)

// MarshalBinary encodes the manifest.
//
// Format:
//
//	Magic (4) | Version (4) | CRC32C of payload (4) | PayloadLength (4)
//	Payload:
//	  ID (8) | CreatedAt UnixNano (8) | Schema (bytes)
//	  NextRowID (8) | NextFragmentID (8)
//	  NumFragments (4), each:
//	    ID (8) | FirstRowID (8) | Rows (4) | Size (8) | Path (string)
//	    DeletionVersion (8) | DeletionCount (4) | DeletionPath (string)
//	  HasIndex (1), then when set:
//	    Path (string) | Watermark (8) | Metric (string) | Partitions (4)
//	    Rows (8) | CreatedAt UnixNano (8)
//
// Strings carry a 2-byte length prefix, byte slices a 4-byte one.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	if m.Schema == nil {
		return nil, fmt.Errorf("%w: manifest has no schema", ErrCorrupt)
	}
	schemaBytes, err := m.Schema.MarshalBinary()
	if err != nil {
		return nil, err
	}

	pb := newPayloadBuffer(make([]byte, 0, 128+len(schemaBytes)+len(m.Fragments)*96))

	pb.writeUint64(m.ID)
	pb.writeUint64(uint64(m.CreatedAt.UnixNano()))
	pb.writeBytes(schemaBytes)
	pb.writeUint64(uint64(m.NextRowID))
	pb.writeUint64(uint64(m.NextFragmentID))
	pb.writeUint32(uint32(len(m.Fragments)))

	for _, f := range m.Fragments {
		pb.writeUint64(uint64(f.ID))
		pb.writeUint64(uint64(f.FirstRowID))
		pb.writeUint32(f.Rows)
		pb.writeUint64(uint64(f.Size))
		pb.writeString(f.Path)
		pb.writeUint64(f.Deletions.Version)
		pb.writeUint32(f.Deletions.Count)
		pb.writeString(f.Deletions.Path)
	}

	if m.Index == nil {
		pb.writeUint8(0)
	} else {
		pb.writeUint8(1)
		pb.writeString(m.Index.Path)
		pb.writeUint64(uint64(m.Index.Watermark))
		pb.writeString(m.Index.Metric)
		pb.writeUint32(m.Index.Partitions)
		pb.writeUint64(m.Index.Rows)
		pb.writeUint64(uint64(m.Index.CreatedAt.UnixNano()))
	}

	if pb.err != nil {
		return nil, pb.err
	}

	out := make([]byte, binaryHeaderSize, binaryHeaderSize+len(pb.buf))
	binary.LittleEndian.PutUint32(out[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(out[4:8], binaryVersion)
	binary.LittleEndian.PutUint32(out[8:12], hash.CRC32C(pb.buf))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(pb.buf)))
	return append(out, pb.buf...), nil
}

// Unmarshal decodes a manifest written by MarshalBinary.
func Unmarshal(data []byte) (*Manifest, error) {
	if len(data) < binaryHeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}

	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != binaryMagic {
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != binaryVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	length := int(binary.LittleEndian.Uint32(data[12:16]))

	payload := data[binaryHeaderSize:]
	if len(payload) != length {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), length)
	}
	if err := hash.VerifyCRC32C(payload, checksum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	pb := newPayloadBuffer(payload)
	m := &Manifest{Version: int(version)}

	m.ID = pb.readUint64()
	m.CreatedAt = time.Unix(0, int64(pb.readUint64()))
	schemaBytes := pb.readBytes()
	m.NextRowID = model.RowID(pb.readUint64())
	m.NextFragmentID = model.FragmentID(pb.readUint64())

	n := int(pb.readUint32())
	if pb.err == nil && n > len(payload) {
		return nil, fmt.Errorf("%w: fragment count %d", ErrCorrupt, n)
	}
	m.Fragments = make([]FragmentInfo, 0, n)
	for i := 0; i < n && pb.err == nil; i++ {
		var f FragmentInfo
		f.ID = model.FragmentID(pb.readUint64())
		f.FirstRowID = model.RowID(pb.readUint64())
		f.Rows = pb.readUint32()
		f.Size = int64(pb.readUint64())
		f.Path = pb.readString()
		f.Deletions.Version = pb.readUint64()
		f.Deletions.Count = pb.readUint32()
		f.Deletions.Path = pb.readString()
		m.Fragments = append(m.Fragments, f)
	}

	if pb.readUint8() == 1 {
		idx := &IndexInfo{}
		idx.Path = pb.readString()
		idx.Watermark = model.FragmentID(pb.readUint64())
		idx.Metric = pb.readString()
		idx.Partitions = pb.readUint32()
		idx.Rows = pb.readUint64()
		idx.CreatedAt = time.Unix(0, int64(pb.readUint64()))
		m.Index = idx
	}

	if pb.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, pb.err)
	}

	s, err := schema.Unmarshal(schemaBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	m.Schema = s

	return m, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint8(v uint8) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, v)
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) next(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || p.pos+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := p.buf[p.pos : p.pos+n]
	p.pos += n
	return b
}

func (p *payloadBuffer) readUint8() uint8 {
	if b := p.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (p *payloadBuffer) readUint64() uint64 {
	if b := p.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (p *payloadBuffer) readUint32() uint32 {
	if b := p.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (p *payloadBuffer) readString() string {
	b := p.next(2)
	if b == nil {
		return ""
	}
	return string(p.next(int(binary.LittleEndian.Uint16(b))))
}

func (p *payloadBuffer) readBytes() []byte {
	b := p.next(4)
	if b == nil {
		return nil
	}
	return p.next(int(binary.LittleEndian.Uint32(b)))
}
