// Package index implements the IVF vector index of a table.
//
// Build clusters the live vectors of a snapshot with k-means and stores,
// per partition, back-references (fragment id, offset) to the rows. The
// index records a watermark, the highest fragment id it covers; fragments
// appended later are stale with respect to the index and Search scans them
// exhaustively, so results always reflect the full snapshot.
//
// # Search
//
//  1. Rank partitions by the distance of their centroid to the query.
//  2. Probe at least NProbes partitions, and keep probing until K matches
//     are found or every partition was visited.
//  3. Scan fragments beyond the watermark in parallel.
//  4. Merge into a single top-K ordered by (distance, row id).
//
// Distances are exact; only the candidate set is approximate.
package index
