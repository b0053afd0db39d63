package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const binaryVersion = 1

var errTruncated = errors.New("schema: truncated encoding")

// MarshalBinary encodes the schema for the manifest.
//
// Layout: version u8, column count uvarint, then per column:
// name length uvarint, name, type u8, elem u8, dim uvarint, nullable u8.
func (s *Schema) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 16*len(s.columns))
	buf = append(buf, binaryVersion)
	buf = binary.AppendUvarint(buf, uint64(len(s.columns)))
	for _, c := range s.columns {
		buf = binary.AppendUvarint(buf, uint64(len(c.Name)))
		buf = append(buf, c.Name...)
		buf = append(buf, byte(c.Type.ID), byte(c.Type.Elem))
		buf = binary.AppendUvarint(buf, uint64(c.Type.Dim))
		if c.Nullable {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf, nil
}

// Unmarshal decodes a schema written by MarshalBinary and re-validates it.
func Unmarshal(data []byte) (*Schema, error) {
	if len(data) < 1 {
		return nil, errTruncated
	}
	if data[0] != binaryVersion {
		return nil, fmt.Errorf("schema: unsupported encoding version %d", data[0])
	}
	p := 1

	uvarint := func() (uint64, error) {
		v, n := binary.Uvarint(data[p:])
		if n <= 0 {
			return 0, errTruncated
		}
		p += n
		return v, nil
	}

	n, err := uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(data)) {
		return nil, errTruncated
	}

	cols := make([]Column, 0, n)
	for range n {
		l, err := uvarint()
		if err != nil {
			return nil, err
		}
		if uint64(len(data)-p) < l+2 {
			return nil, errTruncated
		}
		name := string(data[p : p+int(l)])
		p += int(l)
		id, elem := TypeID(data[p]), ElemType(data[p+1])
		p += 2
		dim, err := uvarint()
		if err != nil {
			return nil, err
		}
		if p >= len(data) {
			return nil, errTruncated
		}
		nullable := data[p] == 1
		p++
		cols = append(cols, Column{Name: name, Type: DataType{ID: id, Dim: int(dim), Elem: elem}, Nullable: nullable})
	}
	return Define(cols...)
}
