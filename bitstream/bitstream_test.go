package bitstream

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsMSBFirst(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteBits(0x5, 3))
	require.NoError(t, bs.WriteBool(true))
	require.NoError(t, bs.WriteBits(0x3, 4))
	assert.Equal(t, 8, bs.LengthBits())
	assert.Equal(t, []byte{0xb3}, bs.Bytes())
}

func TestUnalignedRoundTrip(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteBool(true))
	require.NoError(t, bs.WriteUint16(0xbeef))
	require.NoError(t, bs.WriteUint32(0xdeadbeef))
	require.NoError(t, bs.WriteInt64(-42))
	require.NoError(t, bs.WriteFloat32(3.5))
	require.NoError(t, bs.WriteFloat64(math.Pi))
	require.NoError(t, bs.WriteInt8(-1))
	require.NoError(t, bs.WriteBits(0x1ff, 9))

	bs.Flip()
	b, err := bs.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	u16, err := bs.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), u16)
	u32, err := bs.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)
	i64, err := bs.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-42), i64)
	f32, err := bs.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)
	f64, err := bs.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, math.Pi, f64)
	i8, err := bs.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
	v, err := bs.ReadBits(9)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1ff), v)
	assert.Equal(t, 0, bs.RemainingBits())
}

func TestAlignedIntegersBigEndian(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteUint32(0x01020304))
	require.NoError(t, bs.WriteUint16(0x0506))
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, bs.Bytes())
}

func TestVarints(t *testing.T) {
	bs := New(0, Write)
	unsigned := []uint64{0, 1, 127, 128, 300, math.MaxUint32, math.MaxUint64}
	signed := []int64{0, -1, 1, -64, 64, math.MinInt64, math.MaxInt64}
	for _, v := range unsigned {
		require.NoError(t, bs.WriteVarUint(v))
	}
	for _, v := range signed {
		require.NoError(t, bs.WriteVarInt(v))
	}

	bs.Flip()
	for _, expected := range unsigned {
		v, err := bs.ReadVarUint()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}
	for _, expected := range signed {
		v, err := bs.ReadVarInt()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}
}

func TestVarUintEncodingWidth(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteVarUint(300))
	assert.Equal(t, []byte{0xac, 0x02}, bs.Bytes())
}

func TestVarUintOverflow(t *testing.T) {
	bs := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f})
	_, err := bs.ReadVarUint()
	assert.Equal(t, ErrVarintOverflow, errors.Cause(err))
	assert.Equal(t, 0, bs.PositionBits())
}

func TestStringsAndBytes(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteBool(false))
	require.NoError(t, bs.WriteString("héllo"))
	require.NoError(t, bs.AlignWrite())
	require.NoError(t, bs.WriteBytes([]byte{9, 8, 7}))
	require.NoError(t, bs.WriteString(""))

	bs.Flip()
	_, err := bs.ReadBool()
	require.NoError(t, err)
	s, err := bs.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
	require.NoError(t, bs.AlignRead())
	p := make([]byte, 3)
	require.NoError(t, bs.ReadBytes(p))
	assert.Equal(t, []byte{9, 8, 7}, p)
	s, err = bs.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestReadStringTruncated(t *testing.T) {
	bs := NewReader([]byte{0x05, 'a', 'b'})
	_, err := bs.ReadString()
	assert.Equal(t, ErrUnderflow, errors.Cause(err))
	assert.Equal(t, 0, bs.PositionBits())
}

func TestRangedUint(t *testing.T) {
	assert.Equal(t, 0, RangedWidth(5, 5))
	assert.Equal(t, 3, RangedWidth(0, 7))
	assert.Equal(t, 4, RangedWidth(100, 108))

	bs := New(0, Write)
	require.NoError(t, bs.WriteRangedUint(107, 100, 108))
	require.NoError(t, bs.WriteRangedUint(5, 5, 5))
	assert.Equal(t, 4, bs.LengthBits())
	assert.Equal(t, ErrOutOfRange, errors.Cause(bs.WriteRangedUint(99, 100, 108)))

	bs.Flip()
	v, err := bs.ReadRangedUint(100, 108)
	require.NoError(t, err)
	assert.Equal(t, uint32(107), v)
	v, err = bs.ReadRangedUint(5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
}

func TestDynamicGrowth(t *testing.T) {
	bs := New(0, Write)
	assert.Equal(t, minCapacity, bs.Cap())
	for i := 0; i < 1000; i++ {
		require.NoError(t, bs.WriteUint32(uint32(i)))
	}
	assert.Equal(t, 4000, bs.Len())
	assert.True(t, bs.Cap() >= 4000)

	bs.Flip()
	for i := 0; i < 1000; i++ {
		v, err := bs.ReadUint32()
		require.NoError(t, err)
		require.Equal(t, uint32(i), v)
	}
}

func TestStaticWriteOverflow(t *testing.T) {
	bs := New(minCapacity, Write)
	bs.SetWriteMode(Static)
	require.NoError(t, bs.WriteBytes(make([]byte, minCapacity-1)))
	err := bs.WriteUint16(1)
	assert.Equal(t, ErrOverflow, errors.Cause(err))
	assert.Equal(t, (minCapacity-1)*8, bs.LengthBits())
	require.NoError(t, bs.WriteUint8(1))
}

func TestReadUnderflowLeavesCursor(t *testing.T) {
	bs := NewReader([]byte{0x01, 0x02})
	_, err := bs.ReadUint32()
	assert.Equal(t, ErrUnderflow, errors.Cause(err))
	assert.Equal(t, 0, bs.PositionBits())
	v, err := bs.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)
}

func TestWrongMode(t *testing.T) {
	bs := New(0, Read)
	assert.Equal(t, ErrWrongMode, errors.Cause(bs.WriteUint8(1)))
	bs.Reset(Write)
	_, err := bs.ReadUint8()
	assert.Equal(t, ErrWrongMode, errors.Cause(err))
}

func TestBitCount(t *testing.T) {
	bs := New(0, Write)
	assert.Equal(t, ErrBitCount, errors.Cause(bs.WriteBits(0, 65)))
	assert.Equal(t, ErrBitCount, errors.Cause(bs.WriteBits(0, -1)))
	require.NoError(t, bs.WriteBits(math.MaxUint64, 64))
	bs.Flip()
	v, err := bs.ReadBits(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestResetClearsLength(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteUint32(0xffffffff))
	assert.Equal(t, 4, bs.Len())
	bs.Reset(Write)
	assert.Equal(t, 0, bs.Len())
	assert.Equal(t, 0, bs.PositionBits())

	require.NoError(t, bs.WriteBits(0, 1))
	assert.Equal(t, []byte{0x00}, bs.Bytes())
}

func TestSeekOverwrite(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteUint16(0))
	require.NoError(t, bs.WriteUint8(0xaa))
	require.NoError(t, bs.SeekBits(0))
	require.NoError(t, bs.WriteUint16(3))
	assert.Equal(t, []byte{0x00, 0x03, 0xaa}, bs.Bytes())
	assert.Equal(t, ErrSeek, errors.Cause(bs.SeekBits(25)))
}

func TestLoad(t *testing.T) {
	bs := New(minCapacity, Read)
	require.NoError(t, bs.Load([]byte{0xca, 0xfe}))
	v, err := bs.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xcafe), v)

	assert.Equal(t, ErrOverflow, errors.Cause(bs.Load(make([]byte, minCapacity+1))))

	bs.SetReadMode(Dynamic)
	require.NoError(t, bs.Load(make([]byte, minCapacity+1)))
	assert.Equal(t, minCapacity+1, bs.Len())
}

func TestShrink(t *testing.T) {
	bs := New(0, Write)
	require.NoError(t, bs.WriteBytes(make([]byte, 4096)))
	bs.Shrink(128)
	assert.Equal(t, 128, bs.Cap())
	assert.Equal(t, 0, bs.Len())
}

func BenchmarkWriteUint32Aligned(b *testing.B) {
	bs := New(64*1024, Write)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if bs.Len() > 60*1024 {
			bs.Reset(Write)
		}
		if err := bs.WriteUint32(uint32(i)); err != nil {
			b.Fatal(err)
		}
	}
}
