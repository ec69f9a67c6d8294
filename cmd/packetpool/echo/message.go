package echo

import (
	"time"

	"github.com/netgore/packetpool/bitstream"
	"github.com/netgore/packetpool/packet"
	"github.com/pkg/errors"
)

// message is the echo payload. Replies carry the request's id and stamp back
// unchanged, with reply set.
type message struct {
	id    uint64
	stamp time.Time
	reply bool
	text  string
}

func (self *message) encode(w *packet.Writer) error {
	if err := w.WriteVarUint(self.id); err != nil {
		return errors.Wrap(err, "id")
	}
	if err := w.WriteVarInt(self.stamp.UnixNano()); err != nil {
		return errors.Wrap(err, "stamp")
	}
	if err := w.WriteBool(self.reply); err != nil {
		return errors.Wrap(err, "reply")
	}
	if err := w.WriteString(self.text); err != nil {
		return errors.Wrap(err, "text")
	}
	return nil
}

func decode(bs *bitstream.BitStream) (*message, error) {
	m := &message{}
	var err error
	if m.id, err = bs.ReadVarUint(); err != nil {
		return nil, errors.Wrap(err, "id")
	}
	stamp, err := bs.ReadVarInt()
	if err != nil {
		return nil, errors.Wrap(err, "stamp")
	}
	m.stamp = time.Unix(0, stamp)
	if m.reply, err = bs.ReadBool(); err != nil {
		return nil, errors.Wrap(err, "reply")
	}
	if m.text, err = bs.ReadString(); err != nil {
		return nil, errors.Wrap(err, "text")
	}
	return m, nil
}
