package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doismellburning/audiohook/clock"
	"github.com/doismellburning/audiohook/pcmsim"
	"github.com/doismellburning/audiohook/transport"
)

// fakeClock is a deterministic clock.Source for tests that need exact
// timestamp control.
type fakeClock struct{ t uint64 }

func (c *fakeClock) Now() uint64 { return c.t }

// newTestHook wires a Hook with a fake clock and an in-memory transport,
// returning the Hook and its Buffer for inspection.
func newTestHook(t *testing.T) (*Hook, *transport.Buffer, *fakeClock) {
	t.Helper()
	clk := &fakeClock{}
	h := New(clk, clock.NewAudioState())
	buf := transport.NewBuffer()
	require.NoError(t, h.SetTransport(buf))
	return h, buf, clk
}

func stereoParams() pcmsim.HwParams {
	return pcmsim.HwParams{
		Format:   pcmsim.FormatS16LE,
		Rate:     44100,
		Channels: 2,
		Access:   pcmsim.AccessRWInterleaved,
	}
}

// TestBlockingInterleavedWriteI exercises a blocking interleaved writei.
func TestBlockingInterleavedWriteI(t *testing.T) {
	h, buf, clk := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))

	clk.t = 1000
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	require.NoError(t, h.WriteI(pcm, payload, 4))

	// The AUDIO packet is pushed by the worker goroutine, possibly after
	// a first Drain has already returned the AUDIO_FORMAT packet.
	var packets []transport.Packet
	for len(packets) < 2 {
		more, err := buf.Drain()
		require.NoError(t, err)
		packets = append(packets, more...)
	}
	require.Len(t, packets, 2, "expected one AUDIO_FORMAT and one AUDIO packet")

	assert.Equal(t, byte(2), packets[0].Bytes[0], "first packet should be AUDIO_FORMAT")
	assert.Equal(t, byte(1), packets[1].Bytes[0], "second packet should be AUDIO")
	assert.Equal(t, payload, packets[1].Bytes[1+4+8+8:], "payload bytes should match what was written")
}

// TestWriteNOnInterleavedStreamIsRejected exercises a non-interleaved
// writen on an interleaved stream:
// every access mode hw_params accepts sets INTERLEAVED, so WriteN always
// refuses once a stream is negotiated — this is a faithful port of the
// source project's behavior, not a new restriction.
func TestWriteNOnInterleavedStreamIsRejected(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))

	_, _ = buf.Drain() // drain the AUDIO_FORMAT packet

	bufs := [][]byte{{1, 2}, {3, 4}}
	err := h.WriteN(pcm, bufs, 1)
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, buf.Close())
	packets, err := buf.Drain()
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.Empty(t, packets)
}

// TestComplexMMapInterleavesCorrectly exercises a complex MMap capture.
func TestComplexMMapInterleavesCorrectly(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, pcmsim.HwParams{
		Format:   pcmsim.FormatS16LE,
		Rate:     48000,
		Channels: 2,
		Access:   pcmsim.AccessMMapComplex,
	}))
	_, _ = buf.Drain()

	left := []byte{0, 1, 2, 3, 4, 5, 6, 7}  // L0..L3 as 2-byte samples
	right := []byte{10, 11, 12, 13, 14, 15, 16, 17}

	areas := []pcmsim.ChannelArea{
		{Addr: left, FirstBits: 0, StepBits: 16},
		{Addr: right, FirstBits: 0, StepBits: 16},
	}

	require.NoError(t, h.MMapBegin(pcm, areas, 0, 4))
	require.NoError(t, h.MMapCommit(pcm, 0, 4))

	packets, err := buf.Drain()
	require.NoError(t, err)
	require.Len(t, packets, 1)

	payload := packets[0].Bytes[1+4+8+8:]
	want := []byte{0, 1, 10, 11, 2, 3, 12, 13, 4, 5, 14, 15, 6, 7, 16, 17}
	assert.Equal(t, want, payload)
}

// TestAsyncDropWhenAllowSkip exercises an async drop under allow-skip.
func TestAsyncDropWhenAllowSkip(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())
	h.AllowSkip(true)

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeAsync))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	s := h.getStream(pcm)
	for !s.captureReady.Load() {
		yield() // let the new worker reach its initial ready state first
	}
	s.captureReady.Store(false) // simulate the worker still draining

	err := h.WriteI(pcm, make([]byte, 16), 4)
	assert.ErrorIs(t, err, ErrBusy)
}

// TestFormatChangeReinitializesWorker exercises a format change on an
// already-started hook.
func TestFormatChangeReinitializesWorker(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	s := h.getStream(pcm)
	firstID := s.audioID

	require.NoError(t, h.HwParams(pcm, pcmsim.HwParams{
		Format:   pcmsim.FormatS32LE,
		Rate:     48000,
		Channels: 2,
		Access:   pcmsim.AccessRWInterleaved,
	}))

	packets, err := buf.Drain()
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, firstID, s.audioID, "audio_id is stable across a format change")

	require.NoError(t, h.WriteI(pcm, make([]byte, 16), 2))
	packets, err = buf.Drain()
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, byte(1), packets[0].Bytes[0])
}

// TestDestroyStopsWorkers exercises a Destroy mid-stream.
func TestDestroyStopsWorkers(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))

	s := h.getStream(pcm)
	h.Destroy()

	assert.False(t, s.captureRunning.Load())
	assert.Nil(t, h.streamHead)
	_ = buf.Close()
}

// TestStartIsIdempotent checks that a second Start call is a no-op.
func TestStartIsIdempotent(t *testing.T) {
	h, _, _ := newTestHook(t)
	require.NoError(t, h.Start())
	require.NoError(t, h.Start())
	assert.True(t, h.capturing.Load())
}

// TestStartWithoutTransportFails covers the not-ready error.
func TestStartWithoutTransportFails(t *testing.T) {
	h := New(&fakeClock{}, clock.NewAudioState())
	assert.ErrorIs(t, h.Start(), ErrNotReady)
}

// TestSetTransportTwiceFails covers the already-set error.
func TestSetTransportTwiceFails(t *testing.T) {
	h := New(&fakeClock{}, clock.NewAudioState())
	require.NoError(t, h.SetTransport(transport.NewBuffer()))
	assert.ErrorIs(t, h.SetTransport(transport.NewBuffer()), ErrAlreadySet)
}

// TestUnsupportedFormatFails checks the not-supported path of the Format
// Map.
func TestUnsupportedFormatFails(t *testing.T) {
	h, _, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))

	err := h.HwParams(pcm, pcmsim.HwParams{
		Format:   pcmsim.FormatU8,
		Rate:     44100,
		Channels: 2,
		Access:   pcmsim.AccessRWInterleaved,
	})
	assert.ErrorIs(t, err, ErrNotSupported)
}

// TestUninitializedStreamRejectsWrites checks the blanket "require
// initialized" rule for data-submission entry points.
func TestUninitializedStreamRejectsWrites(t *testing.T) {
	h, _, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))

	assert.ErrorIs(t, h.WriteI(pcm, make([]byte, 4), 1), ErrInvalid)
	assert.ErrorIs(t, h.MMapCommit(pcm, 0, 1), ErrInvalid)
}

// TestMMapCommitZeroChannels covers the "channels == 0" boundary.
func TestMMapCommitZeroChannels(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	s := h.getStream(pcm)
	s.channels = 0

	require.NoError(t, h.MMapCommit(pcm, 0, 4))
	require.NoError(t, buf.Close())
	packets, err := buf.Drain()
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.Empty(t, packets)
}

// TestZeroFramePayloadStillEmitsPacket covers the "frames == 0" boundary.
func TestZeroFramePayloadStillEmitsPacket(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	require.NoError(t, h.WriteI(pcm, nil, 0))
	packets, err := buf.Drain()
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, uint64(0), beLen(packets[0].Bytes))
}

func beLen(b []byte) uint64 {
	size := uint64(0)
	for i := 0; i < 8; i++ {
		size |= uint64(b[1+4+8+i]) << (8 * i)
	}
	return size
}

// TestScratchBufferGrowsMonotonically checks the "scratch grows
// monotonically" boundary: once grown to N bytes, a subsequent payload of
// M <= N bytes must reuse the same backing array.
func TestScratchBufferGrowsMonotonically(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	require.NoError(t, h.WriteI(pcm, make([]byte, 16), 4))
	_, _ = buf.Drain()
	s := h.getStream(pcm)
	grown := s.captureData

	require.NoError(t, h.WriteI(pcm, make([]byte, 8), 2))
	_, _ = buf.Drain()
	assert.True(t, &grown[0] == &s.captureData[0], "smaller payload should not reallocate the scratch buffer")
}

// TestScratchBufferHintPreGrowsNewStreams checks that SetScratchBufferHint
// takes effect for a stream discovered after the call, avoiding
// growCapture's first reallocation for a payload within the hint.
func TestScratchBufferHintPreGrowsNewStreams(t *testing.T) {
	h, _, _ := newTestHook(t)
	h.SetScratchBufferHint(64)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	s := h.getStream(pcm)
	assert.GreaterOrEqual(t, len(s.captureData), 64)
}

// TestMMapCommitWithoutBeginFails checks the asymmetric no-unlock branch:
// a commit before a begin returns ErrInvalid without releasing the write
// lock, matching audio_hook_alsa_mmap_commit's "not locked" comment.
func TestMMapCommitWithoutBeginFails(t *testing.T) {
	h, buf, _ := newTestHook(t)
	require.NoError(t, h.Start())

	pcm := &pcmsim.Handle{Name: "default"}
	require.NoError(t, h.Open(pcm, "default", pcmsim.StreamPlayback, pcmsim.ModeNone))
	require.NoError(t, h.HwParams(pcm, stereoParams()))
	_, _ = buf.Drain()

	err := h.MMapCommit(pcm, 0, 4)
	assert.ErrorIs(t, err, ErrInvalid)

	s := h.getStream(pcm)
	assert.False(t, s.writeMutex.TryLock(), "write lock should still be held after a commit-before-begin failure")
}
