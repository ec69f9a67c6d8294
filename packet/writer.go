// Package packet builds outgoing packets in pooled bit-level buffers and moves
// them over a stream transport as length-prefixed frames.
package packet

import (
	"github.com/netgore/packetpool/bitstream"
)

// Writer is a checked-out packet buffer. The full BitStream write surface is
// available on it. Close returns it to the WriterPool it came from; a Writer
// must not be touched after Close.
type Writer struct {
	*bitstream.BitStream
	pool *WriterPool
}

func newWriter(p *WriterPool) *Writer {
	w := &Writer{
		BitStream: bitstream.New(p.profile.WriterBufferSz, bitstream.Write),
		pool:      p,
	}
	resetWriter(w, p.profile)
	return w
}

func resetWriter(w *Writer, p *Profile) {
	if w.Cap() > p.MaxRetainedSz {
		w.Shrink(p.WriterBufferSz)
	}
	w.Reset(bitstream.Write)
	w.SetReadMode(bitstream.Static)
	w.SetWriteMode(bitstream.Dynamic)
}

// Close releases the writer. A second Close fails with pool.ErrNotCheckedOut.
func (self *Writer) Close() error {
	return self.pool.store.Release(self)
}

// Payload pads the packet to a byte boundary and returns its bytes.
func (self *Writer) Payload() ([]byte, error) {
	if err := self.AlignWrite(); err != nil {
		return nil, err
	}
	return self.Bytes(), nil
}
