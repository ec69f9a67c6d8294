package packet

import (
	"io"

	"github.com/netgore/packetpool/bitstream"
	"github.com/netgore/packetpool/pool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Handler consumes one received packet. The stream is only valid for the
// duration of the call.
type Handler func(seq uint32, bs *bitstream.BitStream) error

type Receiver struct {
	r       io.Reader
	handler Handler
	streams *pool.Pool[*bitstream.BitStream]
	buf     []byte
	err     error
	Done    chan struct{}
}

func NewReceiver(id string, r io.Reader, profile *Profile, handler Handler, i pool.Instrument) (*Receiver, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	streams, err := pool.New(pool.Config[*bitstream.BitStream]{
		Id: id,
		New: func() *bitstream.BitStream {
			return bitstream.New(profile.ReaderBufferSz, bitstream.Read)
		},
		Reset: func(bs *bitstream.BitStream) {
			bs.Reset(bitstream.Read)
			bs.SetReadMode(bitstream.Static)
		},
		Instrument: i,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create reader pool")
	}
	bufSz := profile.MaxPacketSz
	if bufSz < headerSz {
		bufSz = headerSz
	}
	return &Receiver{
		r:       r,
		handler: handler,
		streams: streams,
		buf:     make([]byte, bufSz),
		Done:    make(chan struct{}),
	}, nil
}

// Run dispatches frames to the handler until the stream ends or the handler
// fails. Err reports why it stopped; a clean end of stream leaves it nil.
func (self *Receiver) Run() {
	logrus.Debug("started")
	defer logrus.Debug("exited")
	defer close(self.Done)
	defer self.streams.Close()

	for {
		seq, payload, err := ReadFrame(self.r, self.buf)
		if err == io.EOF {
			return
		}
		if err != nil {
			self.err = err
			return
		}
		if err := self.dispatch(seq, payload); err != nil {
			self.err = err
			return
		}
	}
}

func (self *Receiver) dispatch(seq uint32, payload []byte) (err error) {
	bs := self.streams.Acquire()
	defer func() {
		if rErr := self.streams.Release(bs); rErr != nil && err == nil {
			err = rErr
		}
	}()
	if err := bs.Load(payload); err != nil {
		return errors.Wrapf(err, "unable to load packet #%d", seq)
	}
	if err := self.handler(seq, bs); err != nil {
		return errors.Wrapf(err, "handler failed for packet #%d", seq)
	}
	return nil
}

// Err is valid once Done is closed.
func (self *Receiver) Err() error {
	return self.err
}

func (self *Receiver) Stats() pool.Stats {
	return self.streams.Stats()
}
