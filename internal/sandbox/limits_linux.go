//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// applyMemoryLimit caps the child's address space. Best effort: the child
// may already have exited, and some kernels refuse prlimit on traced
// processes.
func applyMemoryLimit(pid int, bytes int64) {
	limit := unix.Rlimit{Cur: uint64(bytes), Max: uint64(bytes)}
	_ = unix.Prlimit(pid, unix.RLIMIT_AS, &limit, nil)
}
