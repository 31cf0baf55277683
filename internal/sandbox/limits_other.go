//go:build !linux

package sandbox

// applyMemoryLimit is a no-op where per-process rlimit adjustment is not
// available.
func applyMemoryLimit(pid int, bytes int64) {}
