package hook

import (
	"sync"
	"sync/atomic"

	"github.com/doismellburning/audiohook/audio"
	"github.com/doismellburning/audiohook/clock"
	"github.com/doismellburning/audiohook/pcmsim"
	"github.com/doismellburning/audiohook/transport"
)

// stream is the per-PCM-handle capture record. Every field that is read
// or written from the producer path (any goroutine, including an ASYNC
// one that must never block) is guarded by exactly the lock the mode
// dictates — see producer.go.
type stream struct {
	pcm     *pcmsim.Handle
	audioID uint32
	token   clock.Token

	mode   pcmsim.Mode
	access pcmsim.Access

	flags     audio.Flag
	pcmFormat pcmsim.Format
	rate      uint32
	channels  uint32
	complex   bool

	fmtValid    bool
	initialized bool

	mmapAreas  []pcmsim.ChannelArea
	mmapOffset uint32
	mmapFrames uint32
	mmapSet    bool

	captureData []byte
	captureSize uint32
	captureTime uint64

	writeMutex     sync.Mutex
	writeSpin      spinlock
	empty          *semaphore
	full           *semaphore
	finished       *semaphore
	captureReady   atomic.Bool
	captureRunning atomic.Bool

	packet *transport.PacketWriter

	next *stream
}

// newStream allocates a stream bound to pcm, with its synchronization
// primitives initialized as the producer/consumer rendezvous requires
// (empty starts at 1, one free slot; full and finished start at 0) and
// its scratch buffer pre-grown to scratchHint bytes, avoiding the first
// few reallocations growCapture would otherwise do on a fresh stream.
func newStream(pcm *pcmsim.Handle, scratchHint uint32) *stream {
	return &stream{
		pcm:         pcm,
		empty:       newSemaphore(1),
		full:        newSemaphore(0),
		finished:    newSemaphore(0),
		captureData: make([]byte, scratchHint),
	}
}

// lock acquires the write lock appropriate to s.mode: the spinlock in
// ASYNC mode, the mutex otherwise.
func (s *stream) lock() {
	if s.mode&pcmsim.ModeAsync != 0 {
		s.writeSpin.lock()
	} else {
		s.writeMutex.Lock()
	}
}

func (s *stream) unlock() {
	if s.mode&pcmsim.ModeAsync != 0 {
		s.writeSpin.unlock()
	} else {
		s.writeMutex.Unlock()
	}
}

// growCapture ensures the scratch buffer can hold size bytes, growing but
// never shrinking it: capture_data_size never drops below capture_size,
// and the backing array is only ever replaced by a larger one.
func (s *stream) growCapture(size uint32) error {
	s.captureSize = size
	if uint32(len(s.captureData)) >= size {
		return nil
	}
	grown := make([]byte, size)
	s.captureData = grown
	return nil
}
