// Package cache provides in-memory LRU caches for blob blocks.
//
// Remote blob stores (S3, MinIO) serve range reads with high latency; the
// block cache keeps recently read fixed-size blocks so reopening a table or
// reloading a fragment does not hit the network again.
//
//   - LRUBlockCache: single mutex, byte-capacity bound
//   - ShardedLRUBlockCache: 16 LRU shards selected by maphash
//
// Both charge cached bytes to an optional resource.Controller, so the
// block cache and decoded fragments share one memory budget.
package cache
