package bitstream

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

const maxVarintBytes = 10

func (self *BitStream) WriteBool(v bool) error {
	if v {
		return self.WriteBits(1, 1)
	}
	return self.WriteBits(0, 1)
}

func (self *BitStream) ReadBool() (bool, error) {
	v, err := self.ReadBits(1)
	return v == 1, err
}

func (self *BitStream) WriteUint8(v uint8) error {
	return self.WriteBits(uint64(v), 8)
}

func (self *BitStream) ReadUint8() (uint8, error) {
	v, err := self.ReadBits(8)
	return uint8(v), err
}

// WriteByte satisfies io.ByteWriter.
func (self *BitStream) WriteByte(c byte) error {
	return self.WriteUint8(c)
}

// ReadByte satisfies io.ByteReader.
func (self *BitStream) ReadByte() (byte, error) {
	return self.ReadUint8()
}

func (self *BitStream) WriteInt8(v int8) error   { return self.WriteUint8(uint8(v)) }
func (self *BitStream) WriteInt16(v int16) error { return self.WriteUint16(uint16(v)) }
func (self *BitStream) WriteInt32(v int32) error { return self.WriteUint32(uint32(v)) }
func (self *BitStream) WriteInt64(v int64) error { return self.WriteUint64(uint64(v)) }

func (self *BitStream) ReadInt8() (int8, error) {
	v, err := self.ReadUint8()
	return int8(v), err
}

func (self *BitStream) ReadInt16() (int16, error) {
	v, err := self.ReadUint16()
	return int16(v), err
}

func (self *BitStream) ReadInt32() (int32, error) {
	v, err := self.ReadUint32()
	return int32(v), err
}

func (self *BitStream) ReadInt64() (int64, error) {
	v, err := self.ReadUint64()
	return int64(v), err
}

func (self *BitStream) WriteFloat32(v float32) error {
	return self.WriteUint32(math.Float32bits(v))
}

func (self *BitStream) ReadFloat32() (float32, error) {
	v, err := self.ReadUint32()
	return math.Float32frombits(v), err
}

func (self *BitStream) WriteFloat64(v float64) error {
	return self.WriteUint64(math.Float64bits(v))
}

func (self *BitStream) ReadFloat64() (float64, error) {
	v, err := self.ReadUint64()
	return math.Float64frombits(v), err
}

// WriteVarUint writes v in 7-bit groups, least significant group first, with
// the high bit of each group flagging a continuation.
func (self *BitStream) WriteVarUint(v uint64) error {
	n := 1
	for x := v >> 7; x != 0; x >>= 7 {
		n++
	}
	if err := self.prepareWrite(n * 8); err != nil {
		return err
	}
	for v >= 0x80 {
		self.putBits(v&0x7f|0x80, 8)
		v >>= 7
	}
	self.putBits(v, 8)
	return nil
}

func (self *BitStream) ReadVarUint() (uint64, error) {
	start := self.pos
	var v uint64
	for i := 0; i < maxVarintBytes; i++ {
		b, err := self.ReadBits(8)
		if err != nil {
			self.pos = start
			return 0, err
		}
		if i == maxVarintBytes-1 && b > 1 {
			self.pos = start
			return 0, ErrVarintOverflow
		}
		v |= (b & 0x7f) << uint(7*i)
		if b < 0x80 {
			return v, nil
		}
	}
	self.pos = start
	return 0, ErrVarintOverflow
}

// WriteVarInt zig-zag encodes v so small magnitudes stay short.
func (self *BitStream) WriteVarInt(v int64) error {
	return self.WriteVarUint(uint64(v<<1) ^ uint64(v>>63))
}

func (self *BitStream) ReadVarInt() (int64, error) {
	u, err := self.ReadVarUint()
	return int64(u>>1) ^ -int64(u&1), err
}

func (self *BitStream) WriteBytes(p []byte) error {
	if err := self.prepareWrite(len(p) * 8); err != nil {
		return err
	}
	if self.aligned() {
		copy(self.buf[self.pos>>3:], p)
		self.advance(len(p) * 8)
		return nil
	}
	for _, b := range p {
		self.putBits(uint64(b), 8)
	}
	return nil
}

// Write satisfies io.Writer.
func (self *BitStream) Write(p []byte) (int, error) {
	if err := self.WriteBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadBytes fills p completely or fails without moving the cursor.
func (self *BitStream) ReadBytes(p []byte) error {
	if err := self.prepareRead(len(p) * 8); err != nil {
		return err
	}
	if self.aligned() {
		copy(p, self.buf[self.pos>>3:])
		self.pos += len(p) * 8
		return nil
	}
	for i := range p {
		p[i] = byte(self.getBits(8))
	}
	return nil
}

// WriteString writes a varuint byte length followed by the UTF-8 bytes.
func (self *BitStream) WriteString(s string) error {
	start, length := self.pos, self.length
	if err := self.WriteVarUint(uint64(len(s))); err != nil {
		return err
	}
	if err := self.prepareWrite(len(s) * 8); err != nil {
		self.pos, self.length = start, length
		return err
	}
	for i := 0; i < len(s); i++ {
		self.putBits(uint64(s[i]), 8)
	}
	return nil
}

func (self *BitStream) ReadString() (string, error) {
	start := self.pos
	n, err := self.ReadVarUint()
	if err != nil {
		return "", err
	}
	if n > uint64(self.RemainingBits()/8) {
		self.pos = start
		return "", errors.Wrapf(ErrUnderflow, "string of [%d] bytes with [%d] bits remaining", n, self.RemainingBits())
	}
	p := make([]byte, n)
	if err := self.ReadBytes(p); err != nil {
		self.pos = start
		return "", err
	}
	return string(p), nil
}

// RangedWidth is the number of bits WriteRangedUint uses for [min, max].
func RangedWidth(min, max uint32) int {
	return bits.Len32(max - min)
}

// WriteRangedUint packs v into the minimum number of bits able to represent
// every value in [min, max].
func (self *BitStream) WriteRangedUint(v, min, max uint32) error {
	if min > max || v < min || v > max {
		return errors.Wrapf(ErrOutOfRange, "[%d] outside [%d, %d]", v, min, max)
	}
	return self.WriteBits(uint64(v-min), RangedWidth(min, max))
}

func (self *BitStream) ReadRangedUint(min, max uint32) (uint32, error) {
	if min > max {
		return 0, errors.Wrapf(ErrOutOfRange, "empty range [%d, %d]", min, max)
	}
	start := self.pos
	v, err := self.ReadBits(RangedWidth(min, max))
	if err != nil {
		return 0, err
	}
	if v > uint64(max-min) {
		self.pos = start
		return 0, errors.Wrapf(ErrOutOfRange, "[%d] outside [%d, %d]", uint64(min)+v, min, max)
	}
	return min + uint32(v), nil
}
