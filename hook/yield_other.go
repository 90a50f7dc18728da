//go:build !linux

package hook

import "runtime"

// yield is the non-Linux fallback for the async busy-wait loop.
func yield() {
	runtime.Gosched()
}
