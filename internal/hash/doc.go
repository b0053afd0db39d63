// Package hash provides the checksums used by the on-disk formats.
//
//   - CRC32C (Castagnoli) guards whole files: fragment footers, manifests,
//     deletion files and index files.
//   - XXH64 guards individual column blocks inside a fragment, so a corrupt
//     column is reported by name instead of as a whole-file failure.
//
// # Usage
//
//	sum := hash.CRC32C(data)
//	if err := hash.VerifyCRC32C(data, sum); err != nil { ... }
//	colSum := hash.XXH64(raw)
package hash
