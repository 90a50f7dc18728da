//go:build linux

package hook

import "golang.org/x/sys/unix"

// yield is the direct analogue of the source project's sched_yield() call
// on the async wait-for-worker busy loop. Using the real syscall instead of
// runtime.Gosched matches the source's intent of giving up the processor
// without risking the Go scheduler batching the yield away under
// GOMAXPROCS=1.
func yield() {
	_ = unix.SchedYield()
}
