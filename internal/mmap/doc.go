// Package mmap maps blob files read-only into memory.
//
// The local blob store serves fragment, manifest and index reads from a
// Mapping, so decoding works on the page cache directly without an extra
// read(2) copy:
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Bytes is only valid until Close. Callers that keep data past Close must
// copy it.
//
// Unix uses mmap(2)/madvise(2); Windows uses MapViewOfFile and ignores
// advice.
package mmap
