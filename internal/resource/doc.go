// Package resource governs process-wide resources shared by all tables of a
// database.
//
//   - Memory: decoded fragments and cached blob blocks are accounted against
//     an optional hard limit (non-blocking, fail-fast)
//   - Index builds: a weighted semaphore bounds concurrent IVF builds
//   - IO: a token bucket throttles blob writes
//
// All methods are nil-safe, so components can hold an optional *Controller
// without nil checks:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    MaxIndexBuilds:     2,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	if err := rc.AcquireBuild(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBuild()
package resource
