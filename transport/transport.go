// Package transport implements the downstream packet buffer the capture
// hook writes framed audio messages into. The transport is an external
// collaborator to the hook (the real one is a lock-free, shared-memory
// framed byte stream); this package gives it a concrete, in-process form
// so the hook can be exercised end-to-end: a single-writer ring buffer
// plus a PacketWriter that groups one open/write.../close sequence into a
// single logical downstream packet.
package transport

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "transport"})

// ErrClosed is returned by operations on a Buffer that has been closed.
var ErrClosed = errors.New("transport: buffer closed")

// ErrNoOpenPacket is returned by Write/Close when no Open is in progress.
var ErrNoOpenPacket = errors.New("transport: no packet open")

// Packet is one fully framed logical write: the concatenation of every
// Write call issued between an Open and the matching Close.
type Packet struct {
	Bytes []byte
}

// Buffer is a framed byte stream. Each stream's capture worker writes to
// it through that stream's own PacketWriter, and every PacketWriter.Close
// pushes one whole packet under the Buffer's mutex, so packets from
// different streams never interleave; Drain is meant for a separate
// downstream consumer
// (recording/streaming/muxing) that the transport is shared with
// alongside other captured media.
type Buffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	packets  []Packet
	closed   bool
	capacity int
}

// NewBuffer returns an empty, open Buffer with no bound on how many
// undrained packets it queues.
func NewBuffer() *Buffer {
	return NewBufferWithCapacity(0)
}

// NewBufferWithCapacity returns an empty, open Buffer that holds at most
// capacity undrained packets; once full, a push drops the oldest queued
// packet to make room for the new one, the fixed-size behavior the ring
// buffer's name promises. A capacity of 0 (or less) means unbounded,
// matching Default()'s TransportCapacity of 0.
func NewBufferWithCapacity(capacity int) *Buffer {
	b := &Buffer{capacity: capacity}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *Buffer) push(p Packet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.capacity > 0 && len(b.packets) >= b.capacity {
		logger.Warn("transport buffer full, dropping oldest packet", "capacity", b.capacity)
		b.packets = b.packets[1:]
	}
	b.packets = append(b.packets, p)
	b.cond.Broadcast()
	return nil
}

// Drain blocks until at least one packet is available or the buffer is
// closed, then returns every packet queued so far.
func (b *Buffer) Drain() ([]Packet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.packets) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.packets) == 0 && b.closed {
		return nil, ErrClosed
	}
	out := b.packets
	b.packets = nil
	return out, nil
}

// Close marks the buffer closed; subsequent pushes fail and any blocked
// Drain returns ErrClosed once drained.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
	return nil
}

// Mode mirrors ps_packet's open mode; the hook only ever writes.
type Mode int

const (
	Write Mode = iota
)

// PacketWriter implements the init/open/write/close/destroy lifecycle
// required of the downstream transport. One PacketWriter is created per
// stream at stream-init time and destroyed when the stream is
// re-initialized or torn down.
type PacketWriter struct {
	to   *Buffer
	mu   sync.Mutex
	open bool
	buf  []byte
}

// NewPacketWriter binds a PacketWriter to its downstream Buffer.
func NewPacketWriter(to *Buffer) *PacketWriter {
	return &PacketWriter{to: to}
}

// Open begins a new logical packet. Within one Open/Close window all
// Write calls are concatenated into a single Packet.
func (w *PacketWriter) Open(_ Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		return ErrNoOpenPacket
	}
	w.open = true
	w.buf = w.buf[:0]
	return nil
}

// Write appends bytes to the currently open packet.
func (w *PacketWriter) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return ErrNoOpenPacket
	}
	w.buf = append(w.buf, p...)
	return nil
}

// Close finalizes the open packet and hands it to the downstream Buffer.
func (w *PacketWriter) Close() error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return ErrNoOpenPacket
	}
	w.open = false
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	w.mu.Unlock()
	return w.to.push(Packet{Bytes: out})
}

// Destroy releases the writer. Pending state from an unclosed Open is
// simply discarded, matching ps_packet_destroy's no-questions-asked
// teardown.
func (w *PacketWriter) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
	w.buf = nil
}

// PutUint32LE/PutUint64LE are small helpers used by the hook to serialize
// message headers in a bit-exact little-endian, packed layout.
func PutUint32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func PutUint64LE(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
