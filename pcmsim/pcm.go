// Package pcmsim provides a minimal, ALSA-shaped stand-in for the host
// audio library the capture hook is interposed against. Nothing in this
// package is part of the interception mechanism itself, which stays
// external — it exists purely so the hook package has a concrete contract
// to compile against and so tests and the demo daemon can drive it without
// a real sound card.
package pcmsim

import "fmt"

// Format mirrors a subset of snd_pcm_format_t — just enough for the
// formats the hook understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatS16LE
	FormatS24LE
	FormatS32LE
	FormatU8 // deliberately unsupported, used to exercise the not-supported path
)

func (f Format) String() string {
	switch f {
	case FormatS16LE:
		return "S16_LE"
	case FormatS24LE:
		return "S24_LE"
	case FormatS32LE:
		return "S32_LE"
	case FormatU8:
		return "U8"
	default:
		return "UNKNOWN"
	}
}

// bytesPerSample returns the on-the-wire width of one sample of f, or 0 if
// f is not a format this package knows how to size.
func (f Format) bytesPerSample() int {
	switch f {
	case FormatS16LE:
		return 2
	case FormatS24LE:
		return 4 // ALSA packs 24-bit samples into 32-bit containers
	case FormatS32LE:
		return 4
	default:
		return 0
	}
}

// Access mirrors snd_pcm_access_t.
type Access int

const (
	AccessUnknown Access = iota
	AccessRWInterleaved
	AccessRWNonInterleaved
	AccessMMapInterleaved
	AccessMMapNonInterleaved
	AccessMMapComplex
)

// Mode bits mirror the SND_PCM_ASYNC / SND_PCM_NONBLOCK open-mode flags.
type Mode int

const (
	ModeNone     Mode = 0
	ModeAsync    Mode = 1 << 0
	ModeNonBlock Mode = 1 << 1
)

// StreamKind mirrors snd_pcm_stream_t. The hook does not filter on it:
// streams of either kind are captured.
type StreamKind int

const (
	StreamPlayback StreamKind = iota
	StreamCapture
)

// Handle is the opaque PCM handle identity the hook keys streams by. Two
// Handles compare equal iff they are the same *Handle pointer — the core
// never looks inside one; streams are keyed by pcm_t pointer equality.
type Handle struct {
	Name string
}

// HwParams is what a real snd_pcm_hw_params_t getter set would report.
type HwParams struct {
	Format     Format
	Rate       uint32
	Channels   uint32
	PeriodSize uint32
	Access     Access
}

// ChannelArea mirrors snd_pcm_channel_area_t: one channel's base address
// and bit strides within an MMap'd region.
type ChannelArea struct {
	Addr      []byte
	FirstBits uint
	StepBits  uint
}

// FramesToBytes mirrors snd_pcm_frames_to_bytes: the size in bytes of
// `frames` frames of interleaved/planar-combined audio at fmt/channels.
func FramesToBytes(fmt Format, channels uint32, frames uint32) uint32 {
	return uint32(fmt.bytesPerSample()) * channels * frames
}

// SamplesToBytes mirrors snd_pcm_samples_to_bytes: the size in bytes of
// `frames` samples of a single channel at fmt.
func SamplesToBytes(fmt Format, frames uint32) uint32 {
	return uint32(fmt.bytesPerSample()) * frames
}

// AreaAddr computes the MMap channel-area address:
//
//	area_addr(area, offset) = area.addr + (area.first/8) + offset*(area.step/8)
//
// Sub-byte FirstBits/StepBits are unsupported and reported via ok=false:
// failing loudly beats producing undefined output.
func AreaAddr(area ChannelArea, offset uint32) (addr []byte, ok bool) {
	if area.FirstBits%8 != 0 || area.StepBits%8 != 0 {
		return nil, false
	}
	start := area.FirstBits/8 + uint(offset)*(area.StepBits/8)
	if int(start) > len(area.Addr) {
		return nil, false
	}
	return area.Addr[start:], true
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}
	return fmt.Sprintf("pcm(%s)", h.Name)
}
