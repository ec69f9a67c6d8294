// Package bitstream implements a bit-level buffer used to serialize and
// deserialize packet payloads.
//
// Bits are stored MSB-first within each byte. Multi-byte integers are written
// big-endian. A BitStream is either in Write or Read mode; each mode has its
// own sizing strategy (Static or Dynamic) which decides whether the backing
// storage may grow.
package bitstream

import (
	"github.com/netgore/packetpool/util"
	"github.com/pkg/errors"
)

type Mode int

const (
	Read Mode = iota
	Write
)

func (self Mode) String() string {
	switch self {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

type BufferMode int

const (
	Static BufferMode = iota
	Dynamic
)

func (self BufferMode) String() string {
	switch self {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

var (
	ErrOverflow       = errors.New("bitstream overflow")
	ErrUnderflow      = errors.New("bitstream underflow")
	ErrWrongMode      = errors.New("bitstream in wrong mode")
	ErrBitCount       = errors.New("bit count out of range")
	ErrOutOfRange     = errors.New("value out of range")
	ErrVarintOverflow = errors.New("varint overflows 64 bits")
	ErrSeek           = errors.New("seek out of bounds")
)

const (
	minCapacity = 64
	growAlign   = 64
)

type BitStream struct {
	buf       []byte
	pos       int
	length    int
	mode      Mode
	readMode  BufferMode
	writeMode BufferMode
}

// New creates a stream with capacity bytes of storage. Reads default to a
// Static strategy, writes to a Dynamic one.
func New(capacity int, mode Mode) *BitStream {
	if capacity < minCapacity {
		capacity = minCapacity
	}
	return &BitStream{
		buf:       make([]byte, capacity),
		mode:      mode,
		readMode:  Static,
		writeMode: Dynamic,
	}
}

// NewReader wraps data without copying it.
func NewReader(data []byte) *BitStream {
	return &BitStream{
		buf:       data,
		length:    len(data) * 8,
		mode:      Read,
		readMode:  Static,
		writeMode: Dynamic,
	}
}

// Reset rewinds the cursor, discards the contents and switches to mode. The
// storage is retained.
func (self *BitStream) Reset(mode Mode) {
	self.pos = 0
	self.length = 0
	self.mode = mode
}

// Load replaces the contents with a copy of data and switches to Read mode.
// A Static read strategy refuses data larger than the current storage.
func (self *BitStream) Load(data []byte) error {
	if len(data) > len(self.buf) {
		if self.readMode == Static {
			return errors.Wrapf(ErrOverflow, "load of [%d] bytes exceeds capacity [%d]", len(data), len(self.buf))
		}
		self.buf = make([]byte, roundUp(len(data)))
	}
	copy(self.buf, data)
	self.pos = 0
	self.length = len(data) * 8
	self.mode = Read
	return nil
}

// Flip switches a written stream to Read mode over the bits written so far.
func (self *BitStream) Flip() {
	self.pos = 0
	self.mode = Read
}

// Shrink drops the storage back to capacity bytes when it has grown larger.
// The contents are discarded.
func (self *BitStream) Shrink(capacity int) {
	if capacity < minCapacity {
		capacity = minCapacity
	}
	if len(self.buf) > capacity {
		self.buf = make([]byte, capacity)
	}
	self.pos = 0
	self.length = 0
}

func (self *BitStream) Mode() Mode                   { return self.mode }
func (self *BitStream) ReadMode() BufferMode         { return self.readMode }
func (self *BitStream) WriteMode() BufferMode        { return self.writeMode }
func (self *BitStream) SetReadMode(mode BufferMode)  { self.readMode = mode }
func (self *BitStream) SetWriteMode(mode BufferMode) { self.writeMode = mode }

// LengthBits is the number of valid bits in the stream.
func (self *BitStream) LengthBits() int { return self.length }

// Len is the number of bytes needed to hold LengthBits.
func (self *BitStream) Len() int { return (self.length + 7) >> 3 }

func (self *BitStream) PositionBits() int { return self.pos }

func (self *BitStream) RemainingBits() int { return self.length - self.pos }

// Cap is the size of the backing storage in bytes.
func (self *BitStream) Cap() int { return len(self.buf) }

// Bytes returns the valid contents without copying. Any bits past LengthBits
// in the final byte are zeroed.
func (self *BitStream) Bytes() []byte {
	n := self.Len()
	if rem := self.length & 7; rem != 0 {
		self.buf[n-1] &= byte(0xff << uint(8-rem))
	}
	return self.buf[:n]
}

// SeekBits moves the cursor. In Write mode, seeking backwards allows
// overwriting previously written bits.
func (self *BitStream) SeekBits(pos int) error {
	if pos < 0 || pos > self.length {
		return errors.Wrapf(ErrSeek, "seek to [%d] outside [0, %d]", pos, self.length)
	}
	self.pos = pos
	return nil
}

func (self *BitStream) aligned() bool {
	return self.pos&7 == 0
}

// prepareWrite checks the mode and guarantees room for n more bits.
func (self *BitStream) prepareWrite(n int) error {
	if self.mode != Write {
		return errors.Wrapf(ErrWrongMode, "write in [%s] mode", self.mode)
	}
	need := (self.pos + n + 7) >> 3
	if need <= len(self.buf) {
		return nil
	}
	if self.writeMode == Static {
		return errors.Wrapf(ErrOverflow, "write of [%d] bits exceeds capacity [%d]", n, len(self.buf))
	}
	self.grow(need)
	return nil
}

func (self *BitStream) grow(need int) {
	newSize := len(self.buf) * 3 / 2
	if newSize < need {
		newSize = need
	}
	tmp := make([]byte, roundUp(newSize))
	copy(tmp, self.buf[:self.Len()])
	self.buf = tmp
}

func (self *BitStream) prepareRead(n int) error {
	if self.mode != Read {
		return errors.Wrapf(ErrWrongMode, "read in [%s] mode", self.mode)
	}
	if self.pos+n > self.length {
		return errors.Wrapf(ErrUnderflow, "read of [%d] bits with [%d] remaining", n, self.length-self.pos)
	}
	return nil
}

func (self *BitStream) advance(n int) {
	self.pos += n
	if self.mode == Write && self.pos > self.length {
		self.length = self.pos
	}
}

// WriteBits writes the low n bits of v, most significant first.
func (self *BitStream) WriteBits(v uint64, n int) error {
	if n < 0 || n > 64 {
		return errors.Wrapf(ErrBitCount, "[%d]", n)
	}
	if err := self.prepareWrite(n); err != nil {
		return err
	}
	self.putBits(v, n)
	return nil
}

func (self *BitStream) putBits(v uint64, n int) {
	for n > 0 {
		idx := self.pos >> 3
		free := 8 - (self.pos & 7)
		take := n
		if take > free {
			take = free
		}
		lowMask := byte(uint(1)<<uint(take) - 1)
		chunk := byte(v>>uint(n-take)) & lowMask
		shift := uint(free - take)
		self.buf[idx] = self.buf[idx]&^(lowMask<<shift) | chunk<<shift
		self.advance(take)
		n -= take
	}
}

// ReadBits reads n bits into the low bits of the result.
func (self *BitStream) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, errors.Wrapf(ErrBitCount, "[%d]", n)
	}
	if err := self.prepareRead(n); err != nil {
		return 0, err
	}
	return self.getBits(n), nil
}

func (self *BitStream) getBits(n int) (v uint64) {
	for n > 0 {
		idx := self.pos >> 3
		free := 8 - (self.pos & 7)
		take := n
		if take > free {
			take = free
		}
		lowMask := byte(uint(1)<<uint(take) - 1)
		chunk := (self.buf[idx] >> uint(free-take)) & lowMask
		v = v<<uint(take) | uint64(chunk)
		self.pos += take
		n -= take
	}
	return
}

// AlignWrite pads with zero bits up to the next byte boundary.
func (self *BitStream) AlignWrite() error {
	if pad := (8 - self.pos&7) & 7; pad > 0 {
		return self.WriteBits(0, pad)
	}
	return nil
}

// AlignRead skips to the next byte boundary.
func (self *BitStream) AlignRead() error {
	if pad := (8 - self.pos&7) & 7; pad > 0 {
		_, err := self.ReadBits(pad)
		return err
	}
	return nil
}

func (self *BitStream) writeAligned(n int, put func([]byte)) error {
	if err := self.prepareWrite(n); err != nil {
		return err
	}
	put(self.buf[self.pos>>3:])
	self.advance(n)
	return nil
}

func (self *BitStream) readAligned(n int, get func([]byte)) error {
	if err := self.prepareRead(n); err != nil {
		return err
	}
	get(self.buf[self.pos>>3:])
	self.pos += n
	return nil
}

func (self *BitStream) WriteUint16(v uint16) error {
	if self.aligned() {
		return self.writeAligned(16, func(b []byte) { util.WriteUint16(b, v) })
	}
	return self.WriteBits(uint64(v), 16)
}

func (self *BitStream) ReadUint16() (v uint16, err error) {
	if self.aligned() {
		err = self.readAligned(16, func(b []byte) { v = util.ReadUint16(b) })
		return
	}
	u, err := self.ReadBits(16)
	return uint16(u), err
}

func (self *BitStream) WriteUint32(v uint32) error {
	if self.aligned() {
		return self.writeAligned(32, func(b []byte) { util.WriteUint32(b, v) })
	}
	return self.WriteBits(uint64(v), 32)
}

func (self *BitStream) ReadUint32() (v uint32, err error) {
	if self.aligned() {
		err = self.readAligned(32, func(b []byte) { v = util.ReadUint32(b) })
		return
	}
	u, err := self.ReadBits(32)
	return uint32(u), err
}

func (self *BitStream) WriteUint64(v uint64) error {
	if self.aligned() {
		return self.writeAligned(64, func(b []byte) { util.WriteUint64(b, v) })
	}
	return self.WriteBits(v, 64)
}

func (self *BitStream) ReadUint64() (v uint64, err error) {
	if self.aligned() {
		err = self.readAligned(64, func(b []byte) { v = util.ReadUint64(b) })
		return
	}
	return self.ReadBits(64)
}

func roundUp(n int) int {
	return (n + growAlign - 1) / growAlign * growAlign
}
