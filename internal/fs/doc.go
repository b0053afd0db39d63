// Package fs provides the filesystem abstraction under the local blob store.
//
//   - [FileSystem]: the handful of os operations the store needs
//   - [LocalFS]: production implementation backed by package os
//   - [FaultyFS]: test wrapper that injects write, sync and rename failures
//   - [WriteFileAtomic]: temp file, fsync, rename, directory fsync
//
// Operations take no context.Context: local syscalls are not interruptible.
// Remote stores with cancellation live in package blobstore.
package fs
