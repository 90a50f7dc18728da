package hook

import (
	"github.com/doismellburning/audiohook/audio"
	"github.com/doismellburning/audiohook/pcmsim"
	"github.com/doismellburning/audiohook/transport"
)

// runWorker is the capture worker loop: one dedicated goroutine per
// stream, consuming stamped scratch buffers and writing framed audio
// packets into the downstream transport.
func runWorker(s *stream) {
	s.captureReady.Store(true)

	for {
		s.full.wait()
		s.captureReady.Store(false)

		if !s.captureRunning.Load() {
			break
		}

		writeAudioPacket(s)

		if s.mode&pcmsim.ModeAsync == 0 {
			s.empty.post()
		}
		s.captureReady.Store(true)
	}

	s.finished.post()
}

// writeAudioPacket frames one AUDIO message (header + payload) as a
// single logical downstream packet.
func writeAudioPacket(s *stream) {
	hdr := audio.Header{
		AudioID:   s.audioID,
		Timestamp: s.captureTime,
		Size:      uint64(s.captureSize),
	}

	msgHdr := make([]byte, 1)
	msgHdr[0] = byte(audio.MessageAudio)

	audioHdr := make([]byte, 4+8+8)
	transport.PutUint32LE(audioHdr[0:4], hdr.AudioID)
	transport.PutUint64LE(audioHdr[4:12], hdr.Timestamp)
	transport.PutUint64LE(audioHdr[12:20], hdr.Size)

	if err := s.packet.Open(transport.Write); err != nil {
		logger.Error("failed to open downstream packet", "audio_id", s.audioID, "err", err)
		return
	}
	_ = s.packet.Write(msgHdr)
	_ = s.packet.Write(audioHdr)
	_ = s.packet.Write(s.captureData[:s.captureSize])
	if err := s.packet.Close(); err != nil {
		logger.Error("failed to close downstream packet", "audio_id", s.audioID, "err", err)
	}
}
