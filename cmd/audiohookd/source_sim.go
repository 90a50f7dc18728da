//go:build !portaudio

package main

import (
	"math"
	"time"

	"github.com/doismellburning/audiohook/hook"
	"github.com/doismellburning/audiohook/pcmsim"
)

// captureSource feeds the hook with a generated sine wave, standing in
// for a real sound card when built without the "portaudio" tag.
type captureSource struct {
	h        *hook.Hook
	rate     uint32
	channels uint32
	stopCh   chan struct{}
}

func newCaptureSource(h *hook.Hook, rate, channels uint32) *captureSource {
	return &captureSource{h: h, rate: rate, channels: channels, stopCh: make(chan struct{})}
}

func (s *captureSource) run() {
	if err := s.h.Open(pcmHandle, "sim", pcmsim.StreamPlayback, pcmsim.ModeNone); err != nil {
		logger.Error("opening simulated stream", "err", err)
		return
	}
	if err := s.h.HwParams(pcmHandle, pcmsim.HwParams{
		Format:   pcmsim.FormatS16LE,
		Rate:     s.rate,
		Channels: s.channels,
		Access:   pcmsim.AccessRWInterleaved,
	}); err != nil {
		logger.Error("negotiating simulated format", "err", err)
		return
	}

	const framesPerPeriod = 256
	period := time.Second * framesPerPeriod / time.Duration(s.rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var phase float64
	buf := make([]byte, framesPerPeriod*int(s.channels)*2)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			step := 440.0 * 2 * math.Pi / float64(s.rate)
			for f := 0; f < framesPerPeriod; f++ {
				sample := int16(math.Sin(phase) * 0.2 * math.MaxInt16)
				phase += step
				for c := uint32(0); c < s.channels; c++ {
					off := (f*int(s.channels) + int(c)) * 2
					buf[off] = byte(sample)
					buf[off+1] = byte(sample >> 8)
				}
			}
			if err := s.h.WriteI(pcmHandle, buf, framesPerPeriod); err != nil {
				logger.Warn("writei failed", "err", err)
			}
		}
	}
}

func (s *captureSource) stop() {
	close(s.stopCh)
}
