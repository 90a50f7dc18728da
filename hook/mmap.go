package hook

import "github.com/doismellburning/audiohook/pcmsim"

// complexToInterleaved converts complex-access MMap data to interleaved
// layout: each channel has its own base/stride MMap area; the output is
// densely interleaved channels*frames samples. This is the expensive
// path, only taken for MMAP_COMPLEX access.
func complexToInterleaved(s *stream, offset, frames uint32) error {
	sampleBytes := pcmsim.SamplesToBytes(s.pcmFormat, 1)
	frameBytes := pcmsim.FramesToBytes(s.pcmFormat, s.channels, 1)

	for c := uint32(0); c < s.channels; c++ {
		for f := uint32(0); f < frames; f++ {
			addr, ok := pcmsim.AreaAddr(s.mmapAreas[c], offset+f)
			if !ok {
				return ErrNotSupported
			}
			dst := f*frameBytes + c*sampleBytes
			copy(s.captureData[dst:dst+sampleBytes], addr[:sampleBytes])
		}
	}
	return nil
}
