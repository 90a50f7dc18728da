package hook

import "errors"

// Error kinds returned by the hook's producer entry points. Each entry
// point returns the first error encountered; every exit path releases the
// write lock, except MMapCommit's commit-before-begin failure, which
// returns ErrInvalid with the lock still held.
var (
	// ErrAlreadySet is returned by SetTransport when a transport is
	// already bound.
	ErrAlreadySet = errors.New("audiohook: transport already set")

	// ErrNotReady is returned by Start when no transport has been set.
	ErrNotReady = errors.New("audiohook: transport not set")

	// ErrInvalid covers: a producer call on an uninitialized stream,
	// MMapCommit without a prior MMapBegin, and WriteN on a stream
	// negotiated as interleaved.
	ErrInvalid = errors.New("audiohook: invalid operation for stream state")

	// ErrNotSupported covers an unrecognized sample format or access mode.
	ErrNotSupported = errors.New("audiohook: format or access mode not supported")

	// ErrBusy is returned by an async-mode producer when the worker was
	// still draining the previous payload and allow-skip is set. The
	// frame is dropped.
	ErrBusy = errors.New("audiohook: capture thread busy, frame dropped")

	// ErrOutOfMemory is returned when growing the scratch buffer fails.
	ErrOutOfMemory = errors.New("audiohook: out of memory growing capture buffer")
)

// HostError wraps a negative/failing return from the host audio library's
// hw_params getters, surfaced verbatim.
type HostError struct {
	Op  string
	Err error
}

func (e *HostError) Error() string { return "audiohook: host error in " + e.Op + ": " + e.Err.Error() }
func (e *HostError) Unwrap() error { return e.Err }
