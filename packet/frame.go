package packet

import (
	"io"

	"github.com/netgore/packetpool/util"
	"github.com/pkg/errors"
)

// Frame layout: uint16 length | uint32 sequence | payload. The length counts
// the sequence and the payload.
const (
	lengthSz = 2
	seqSz    = 4
	headerSz = lengthSz + seqSz
)

var (
	ErrPacketTooLarge = errors.New("packet too large")
	ErrBadFrame       = errors.New("malformed frame")
)

// AppendFrame appends a framed payload to out.
func AppendFrame(out []byte, seq uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxFramePayloadSz {
		return out, errors.Wrapf(ErrPacketTooLarge, "[%d > %d]", len(payload), MaxFramePayloadSz)
	}
	start := len(out)
	need := start + headerSz + len(payload)
	if cap(out) < need {
		grown := make([]byte, start, need)
		copy(grown, out)
		out = grown
	}
	out = out[:need]
	util.WriteUint16(out[start:], uint16(seqSz+len(payload)))
	util.WriteUint32(out[start+lengthSz:], seq)
	copy(out[start+headerSz:], payload)
	return out, nil
}

// ReadFrame reads one frame from r using buf as scratch space. The returned
// payload aliases buf. A clean end of stream before a header yields io.EOF.
func ReadFrame(r io.Reader, buf []byte) (seq uint32, payload []byte, err error) {
	if len(buf) < headerSz {
		return 0, nil, errors.Errorf("scratch buffer too small [%d < %d]", len(buf), headerSz)
	}
	if _, err := io.ReadFull(r, buf[:headerSz]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, errors.Wrap(err, "error reading frame header")
	}
	length := int(util.ReadUint16(buf))
	seq = util.ReadUint32(buf[lengthSz:])
	if length < seqSz {
		return 0, nil, errors.Wrapf(ErrBadFrame, "length [%d] shorter than header", length)
	}
	payloadSz := length - seqSz
	if payloadSz > len(buf) {
		return 0, nil, errors.Wrapf(ErrPacketTooLarge, "[%d > %d]", payloadSz, len(buf))
	}
	if _, err := io.ReadFull(r, buf[:payloadSz]); err != nil {
		return 0, nil, errors.Wrap(err, "error reading frame payload")
	}
	return seq, buf[:payloadSz], nil
}
