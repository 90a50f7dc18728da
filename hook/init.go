package hook

import (
	"github.com/doismellburning/audiohook/audio"
	"github.com/doismellburning/audiohook/transport"
)

// initStream initializes a stream's worker and downstream packet writer
// for its current format epoch. It must be called with s already locked
// by the caller (HwParams) or during Start's single-threaded
// pending-stream sweep.
func (h *Hook) initStream(s *stream) error {
	if !s.fmtValid {
		return ErrInvalid
	}

	if s.audioID == 0 {
		id, token := h.ast.New()
		s.audioID = id
		s.token = token
	}

	logger.Info("initializing stream", "pcm", s.pcm, "audio_id", s.audioID)

	if s.initialized && s.packet != nil {
		s.packet.Destroy()
	}
	s.packet = transport.NewPacketWriter(h.to)

	if err := emitFormatMessage(s); err != nil {
		return err
	}

	if s.captureRunning.Load() {
		s.captureRunning.Store(false)
		s.full.post()
		s.finished.wait()
	}

	s.captureRunning.Store(true)
	go runWorker(s)

	s.initialized = true
	return nil
}

// emitFormatMessage writes the one-shot AUDIO_FORMAT message for s's
// current format epoch, ahead of any AUDIO message from the new worker
// generation.
func emitFormatMessage(s *stream) error {
	msgHdr := []byte{byte(audio.MessageAudioFormat)}

	body := make([]byte, 4+4+4+4)
	transport.PutUint32LE(body[0:4], s.audioID)
	transport.PutUint32LE(body[4:8], uint32(s.flags))
	transport.PutUint32LE(body[8:12], s.rate)
	transport.PutUint32LE(body[12:16], s.channels)

	if err := s.packet.Open(transport.Write); err != nil {
		return err
	}
	if err := s.packet.Write(msgHdr); err != nil {
		return err
	}
	if err := s.packet.Write(body); err != nil {
		return err
	}
	return s.packet.Close()
}
