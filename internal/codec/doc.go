// Package codec implements the on-disk fragment format.
//
// A fragment blob is laid out as
//
//	header  magic "VTF1" | version u16 | flags u16 | rows u32 | columns u32 | first row id u64
//	column  type u8 | nullable u8 | compression u8 | reserved u8 | dim u32 |
//	        raw length u32 | stored length u32 | xxhash64 of raw bytes | payload
//	...
//	footer  crc32c of everything before it
//
// All integers are little-endian. The raw bytes of a nullable column start
// with a validity bitmap of (rows+7)/8 bytes. Int32 values are stored as
// 4-byte words, Utf8 values as rows+1 uint32 offsets followed by the string
// data, and vectors as rows*dim float32 words (null vectors are zero-filled).
package codec
