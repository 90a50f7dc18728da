//go:build portaudio

package main

import (
	"github.com/gordonklaus/portaudio"

	"github.com/doismellburning/audiohook/hook"
	"github.com/doismellburning/audiohook/pcmsim"
)

// captureSource feeds the hook from the default input device via
// PortAudio, the same Initialize/OpenStream/Start/Close lifecycle
// richinsley-goshadertoy's Microphone type uses.
type captureSource struct {
	h        *hook.Hook
	rate     uint32
	channels uint32
	stream   *portaudio.Stream
}

func newCaptureSource(h *hook.Hook, rate, channels uint32) *captureSource {
	return &captureSource{h: h, rate: rate, channels: channels}
}

func (s *captureSource) run() {
	if err := portaudio.Initialize(); err != nil {
		logger.Error("initializing portaudio", "err", err)
		return
	}

	if err := s.h.Open(pcmHandle, "mic", pcmsim.StreamPlayback, pcmsim.ModeNone); err != nil {
		logger.Error("opening microphone stream", "err", err)
		return
	}
	if err := s.h.HwParams(pcmHandle, pcmsim.HwParams{
		Format:   pcmsim.FormatS16LE,
		Rate:     s.rate,
		Channels: s.channels,
		Access:   pcmsim.AccessRWInterleaved,
	}); err != nil {
		logger.Error("negotiating microphone format", "err", err)
		return
	}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		logger.Error("finding default host api", "err", err)
		return
	}

	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = int(s.channels)
	params.SampleRate = float64(s.rate)

	stream, err := portaudio.OpenStream(params, s.audioCallback)
	if err != nil {
		logger.Error("opening portaudio stream", "err", err)
		return
	}
	if err := stream.Start(); err != nil {
		logger.Error("starting portaudio stream", "err", err)
		return
	}
	s.stream = stream
}

func (s *captureSource) audioCallback(in []int16) {
	buf := make([]byte, len(in)*2)
	for i, sample := range in {
		buf[i*2] = byte(sample)
		buf[i*2+1] = byte(sample >> 8)
	}
	frames := uint32(len(in)) / s.channels
	if err := s.h.WriteI(pcmHandle, buf, frames); err != nil {
		logger.Warn("writei failed", "err", err)
	}
}

func (s *captureSource) stop() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		logger.Error("closing portaudio stream", "err", err)
	}
	_ = portaudio.Terminate()
}
