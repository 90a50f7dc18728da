package hook

import (
	"github.com/doismellburning/audiohook/audio"
	"github.com/doismellburning/audiohook/pcmsim"
)

// formatFlag maps the host's sample-format enum to this project's
// audio-format flag. The second return value is false for any width this
// hook does not know how to capture.
func formatFlag(f pcmsim.Format) (audio.Flag, bool) {
	switch f {
	case pcmsim.FormatS16LE:
		return audio.FormatS16LE, true
	case pcmsim.FormatS24LE:
		return audio.FormatS24LE, true
	case pcmsim.FormatS32LE:
		return audio.FormatS32LE, true
	default:
		return audio.FormatUnknown, false
	}
}

// accessFlags resolves the access-mode half of hw_params handling: which
// of Interleaved/Complex apply, and whether the access mode is recognized
// at all.
func accessFlags(a pcmsim.Access) (flags audio.Flag, complex bool, ok bool) {
	switch a {
	case pcmsim.AccessRWInterleaved, pcmsim.AccessMMapInterleaved:
		return audio.Interleaved, false, true
	case pcmsim.AccessMMapComplex:
		return audio.Interleaved, true, true
	default:
		return 0, false, false
	}
}
