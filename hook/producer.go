package hook

import (
	"github.com/doismellburning/audiohook/audio"
	"github.com/doismellburning/audiohook/pcmsim"
)

// Open registers the stream (creating it on first sighting) and records
// its open mode.
func (h *Hook) Open(pcm *pcmsim.Handle, name string, kind pcmsim.StreamKind, mode pcmsim.Mode) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	s.mode = mode

	logger.Info("opened device",
		"pcm", pcm, "name", name,
		"async", mode&pcmsim.ModeAsync != 0,
		"nonblock", mode&pcmsim.ModeNonBlock != 0)
	return nil
}

// Close finds the stream (idempotently) and clears fmtValid so a
// subsequent Start skips it. The worker, if any, is left running:
// teardown is deferred to re-init or Destroy, to avoid paying
// thread-creation cost across an application's open/close cycles.
func (h *Hook) Close(pcm *pcmsim.Handle) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	s.fmtValid = false

	logger.Info("closing stream", "pcm", pcm, "audio_id", s.audioID)
	return nil
}

// HwParams extracts format/rate/channels/access from params under the
// write lock, maps the format and access mode, and marks the stream
// ready to be initialized. If the hook has already started, the stream
// is initialized immediately (a format change on an already running
// hook).
func (h *Hook) HwParams(pcm *pcmsim.Handle, params pcmsim.HwParams) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	s.lock()
	defer s.unlock()

	logger.Debug("creating/updating configuration for stream", "pcm", pcm, "audio_id", s.audioID)

	flag, ok := formatFlag(params.Format)
	if !ok {
		logger.Error("unsupported audio format", "pcm", pcm, "format", params.Format)
		return ErrNotSupported
	}

	accessFlag, complex, ok := accessFlags(params.Access)
	if !ok {
		logger.Error("unsupported access mode", "pcm", pcm, "access", params.Access)
		return ErrNotSupported
	}

	s.flags = flag | accessFlag
	s.pcmFormat = params.Format
	s.complex = complex
	s.rate = params.Rate
	s.channels = params.Channels
	s.access = params.Access
	s.fmtValid = true

	logger.Debug("negotiated format", "pcm", pcm, "channels", s.channels, "rate", s.rate, "flags", s.flags)

	if h.started.Load() {
		return h.initStream(s)
	}
	return nil
}

// WriteI implements the interleaved write path ("writei").
func (h *Hook) WriteI(pcm *pcmsim.Handle, buf []byte, frames uint32) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	if !s.initialized {
		return ErrInvalid
	}

	s.lock()
	defer s.unlock()

	if err := h.waitForWorker(s); err != nil {
		return err
	}

	size := pcmsim.FramesToBytes(s.pcmFormat, s.channels, frames)
	if err := s.growCapture(size); err != nil {
		return ErrOutOfMemory
	}

	s.captureTime = h.clk.Now()
	copy(s.captureData[:size], buf[:size])
	s.full.post()
	return nil
}

// WriteN implements the non-interleaved write path ("writen"). It
// refuses to guess: a stream negotiated as interleaved cannot be fed
// through the planar API. Because every access mode hw_params currently
// accepts (RW_INTERLEAVED, MMAP_INTERLEAVED, MMAP_COMPLEX) sets the
// Interleaved flag, a successfully negotiated stream always takes this
// branch — the same property holds in the source project this was
// modelled on (its access-mode switch has no case that leaves
// GLC_AUDIO_INTERLEAVED clear either), so this is a faithful port of
// that behavior rather than a new restriction.
func (h *Hook) WriteN(pcm *pcmsim.Handle, bufs [][]byte, frames uint32) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	if !s.initialized {
		return ErrInvalid
	}

	s.lock()
	defer s.unlock()

	if s.flags&audio.Interleaved != 0 {
		logger.Error("stream format (interleaved) incompatible with non-interleaved write", "pcm", pcm)
		return ErrInvalid
	}

	if err := h.waitForWorker(s); err != nil {
		return err
	}

	perChannel := pcmsim.SamplesToBytes(s.pcmFormat, frames)
	size := perChannel * s.channels
	if err := s.growCapture(size); err != nil {
		return ErrOutOfMemory
	}

	s.captureTime = h.clk.Now()
	for c := uint32(0); c < s.channels; c++ {
		off := c * perChannel
		copy(s.captureData[off:off+perChannel], bufs[c][:perChannel])
	}
	s.full.post()
	return nil
}

// MMapBegin records the channel areas/offset/frames an upcoming
// MMapCommit will read from. No data is copied yet.
func (h *Hook) MMapBegin(pcm *pcmsim.Handle, areas []pcmsim.ChannelArea, offset, frames uint32) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	if !s.initialized {
		return ErrInvalid
	}

	s.lock()
	s.mmapAreas = areas
	s.mmapOffset = offset
	s.mmapFrames = frames
	s.mmapSet = true
	s.unlock()
	return nil
}

// MMapCommit copies frames frames from the recorded MMap areas into the
// scratch buffer, converting complex access to interleaved layout as it
// goes.
func (h *Hook) MMapCommit(pcm *pcmsim.Handle, offset, frames uint32) error {
	if !h.isCapturing() {
		return nil
	}

	s := h.getStream(pcm)
	if !s.initialized {
		return ErrInvalid
	}

	s.lock()

	if s.channels == 0 {
		s.unlock()
		return nil
	}

	if !s.mmapSet {
		// The source project's audio_hook_alsa_mmap_commit returns here
		// without unlocking ("not locked" in the C comment) — a caller
		// error, not a recoverable race, so the lock is left held rather
		// than released on this path.
		logger.Warn("mmap_commit before mmap_begin", "pcm", pcm)
		return ErrInvalid
	}

	defer s.unlock()

	if offset != s.mmapOffset {
		logger.Warn("mmap commit offset differs from recorded offset", "pcm", pcm, "offset", offset, "expected", s.mmapOffset)
	}

	if err := h.waitForWorker(s); err != nil {
		return err
	}

	size := pcmsim.FramesToBytes(s.pcmFormat, s.channels, frames)
	if err := s.growCapture(size); err != nil {
		return ErrOutOfMemory
	}

	s.captureTime = h.clk.Now()

	switch {
	case s.flags&audio.Interleaved != 0 && !s.complex:
		addr, ok := pcmsim.AreaAddr(s.mmapAreas[0], offset)
		if !ok {
			return ErrNotSupported
		}
		copy(s.captureData[:size], addr[:size])
	case s.complex:
		if err := complexToInterleaved(s, offset, frames); err != nil {
			return err
		}
	default:
		perChannel := pcmsim.SamplesToBytes(s.pcmFormat, frames)
		for c := uint32(0); c < s.channels; c++ {
			addr, ok := pcmsim.AreaAddr(s.mmapAreas[c], offset)
			if !ok {
				return ErrNotSupported
			}
			off := c * perChannel
			copy(s.captureData[off:off+perChannel], addr[:perChannel])
		}
	}

	s.full.post()
	return nil
}

// waitForWorker is the "wait for worker ready" step: the async path
// polls captureReady and either busy-waits (yielding) or drops the frame
// if allow-skip is set; the blocking path waits on the empty semaphore.
func (h *Hook) waitForWorker(s *stream) error {
	if s.mode&pcmsim.ModeAsync != 0 {
		for !s.captureReady.Load() {
			if h.allowSkip.Load() {
				logger.Warn("dropped audio data")
				return ErrBusy
			}
			yield()
		}
		return nil
	}

	s.empty.wait()
	return nil
}
