// Package manifest implements atomic, versioned table metadata.
//
// A manifest records everything needed to reopen a table: its schema, the
// committed fragments with their row ranges and tombstone files, the next
// row and fragment ids, and the persisted vector index if one was built.
//
// # Atomic Protocol
//
// Save follows a two-phase protocol:
//
//  1. Write the manifest blob to MANIFEST-NNNNNN.bin (N is the version ID)
//  2. Replace the CURRENT pointer blob with the new file name
//
// Blob stores write atomically (local stores rename a synced temp file, S3
// objects appear whole), so a crash between the steps leaves the previous
// version current. Load reads CURRENT to find the active manifest.
//
// Every Store method is safe for concurrent use; callers serialize commits
// per table.
package manifest
