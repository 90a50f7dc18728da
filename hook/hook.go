// Package hook implements the audio capture interception layer's core:
// the producer/consumer capture pipeline between an application's audio
// submission path and a dedicated per-stream capture worker, stream
// discovery and lifecycle, format normalization, and framed emission of
// audio packets onto a downstream transport. This file holds the Hook
// singleton and its public façade.
package hook

import (
	"os"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"github.com/doismellburning/audiohook/clock"
	"github.com/doismellburning/audiohook/pcmsim"
	"github.com/doismellburning/audiohook/transport"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	Prefix: "audiohook",
})

// Hook is the process-wide capture hook singleton. Create one with New,
// bind a transport with SetTransport, then Start it once the application
// is ready to record.
type Hook struct {
	clk clock.Source
	ast *clock.AudioState

	to *transport.Buffer

	capturing atomic.Bool
	allowSkip atomic.Bool
	started   atomic.Bool

	scratchHint atomic.Uint32

	regMu      sync.Mutex
	streamHead *stream
}

// New allocates a Hook bound to clk for timestamps and ast for audio-id
// assignment.
func New(clk clock.Source, ast *clock.AudioState) *Hook {
	return &Hook{clk: clk, ast: ast}
}

// SetTransport binds the downstream transport this hook writes captured
// audio to. It may only be called once; a second call fails ErrAlreadySet.
func (h *Hook) SetTransport(to *transport.Buffer) error {
	if h.to != nil {
		return ErrAlreadySet
	}
	h.to = to
	return nil
}

// AllowSkip toggles whether an ASYNC-mode producer that finds the worker
// still busy drops the frame (true) or busy-waits for it (false).
func (h *Hook) AllowSkip(allow bool) {
	h.allowSkip.Store(allow)
}

// SetScratchBufferHint sets the size every newly discovered stream's
// scratch buffer is pre-grown to. Takes effect for streams discovered
// after the call; existing streams keep whatever size growCapture has
// already settled on.
func (h *Hook) SetScratchBufferHint(n uint32) {
	h.scratchHint.Store(n)
}

// Start begins capturing. The first call initializes every stream that
// already has a valid negotiated format. A call while already capturing
// is a no-op beyond a warning log, making Start idempotent; a call after
// Stop resumes capturing without re-initializing streams.
func (h *Hook) Start() error {
	if h.to == nil {
		return ErrNotReady
	}

	if h.capturing.Load() {
		logger.Warn("capturing is already active")
		return nil
	}

	if h.started.CompareAndSwap(false, true) {
		h.initPendingStreams()
	}

	logger.Info("starting capturing")
	h.capturing.Store(true)
	return nil
}

// Stop suppresses the data plane without tearing down any stream or
// worker: a subsequent Start resumes immediately.
func (h *Hook) Stop() error {
	if h.capturing.Load() {
		logger.Info("stopping capturing")
	} else {
		logger.Warn("capturing is already stopped")
	}
	h.capturing.Store(false)
	return nil
}

// Destroy tears down every stream: signals its worker to exit (if one is
// running), waits for it to finish, releases its scratch buffer and
// packet context, and unlinks it. Destroy on a nil *Hook is a no-op,
// matching the source project's tolerant audio_hook_destroy(NULL).
func (h *Hook) Destroy() {
	if h == nil {
		return
	}

	h.regMu.Lock()
	s := h.streamHead
	h.streamHead = nil
	h.regMu.Unlock()

	for s != nil {
		next := s.next
		h.destroyStream(s)
		s = next
	}
}

func (h *Hook) destroyStream(s *stream) {
	if s.captureRunning.Load() {
		s.captureRunning.Store(false)
		s.full.post()
		s.finished.wait()
	}
	if s.packet != nil {
		s.packet.Destroy()
	}
	s.captureData = nil
}

// initPendingStreams runs stream-init on every registered stream that has
// a valid format but has not yet been initialized.
func (h *Hook) initPendingStreams() {
	h.regMu.Lock()
	s := h.streamHead
	h.regMu.Unlock()

	for s != nil {
		if s.fmtValid && !s.initialized {
			if err := h.initStream(s); err != nil {
				logger.Error("failed to initialize pending stream", "pcm", s.pcm, "err", err)
			}
		}
		s = s.next
	}
}

// getStream does a linear search by pointer identity, lazily allocating
// and linking a new stream at the head on first sighting. Guarded by
// regMu: concurrent discovery vs. destroy is resolved with a registry
// lock, since a long-running daemon cannot guarantee the "quiescent
// startup" precondition the source project assumed.
func (h *Hook) getStream(pcm *pcmsim.Handle) *stream {
	h.regMu.Lock()
	defer h.regMu.Unlock()

	for s := h.streamHead; s != nil; s = s.next {
		if s.pcm == pcm {
			return s
		}
	}

	s := newStream(pcm, h.scratchHint.Load())
	s.next = h.streamHead
	h.streamHead = s
	return s
}

// isCapturing is a lock-free read of the capturing flag for the producer
// path; the resulting races around the toggle edge are benign (a dropped
// or extra frame).
func (h *Hook) isCapturing() bool {
	return h.capturing.Load()
}

// IsCapturing reports whether the hook is currently capturing, for
// status displays and diagnostics.
func (h *Hook) IsCapturing() bool {
	return h.isCapturing()
}
