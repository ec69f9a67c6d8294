package packet

import (
	"io"
	"sync"

	"github.com/eapache/queue"
	"github.com/netgore/packetpool/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrSenderClosed = errors.New("sender closed")
	ErrQueueFull    = errors.New("send queue full")
)

// Sender transmits writers as frames, in the order they were sent. Send takes
// ownership of the writer: the Sender releases it once it has been written,
// or immediately when it is refused.
type Sender struct {
	w         io.Writer
	seq       *util.Sequence
	maxQueue  int
	maxPacket int
	lock      *sync.Mutex
	ready     *sync.Cond
	space     *sync.Cond
	queue     *queue.Queue
	started   bool
	closed    bool
	err       error
	frame     []byte
	Done      chan struct{}
}

func NewSender(w io.Writer, profile *Profile) *Sender {
	start := uint32(0)
	if profile.RandomizeSeq {
		start = util.RandomSequence()
	}
	lock := new(sync.Mutex)
	return &Sender{
		w:         w,
		seq:       util.NewSequence(start),
		maxQueue:  profile.SendQueueLen,
		maxPacket: profile.MaxPacketSz,
		lock:      lock,
		ready:     sync.NewCond(lock),
		space:     sync.NewCond(lock),
		queue:     queue.New(),
		frame:     make([]byte, 0, headerSz+profile.WriterBufferSz),
		Done:      make(chan struct{}),
	}
}

func (self *Sender) Send(pw *Writer) error {
	return self.send(pw, false)
}

// SendWait is Send, except that it blocks while the queue is full instead of
// refusing the writer.
func (self *Sender) SendWait(pw *Writer) error {
	return self.send(pw, true)
}

func (self *Sender) send(pw *Writer, wait bool) error {
	payload, err := pw.Payload()
	if err != nil {
		release(pw)
		return errors.Wrap(err, "unable to pad packet")
	}
	if len(payload) > self.maxPacket {
		release(pw)
		return errors.Wrapf(ErrPacketTooLarge, "[%d > %d]", len(payload), self.maxPacket)
	}

	self.lock.Lock()
	for wait && !self.closed && self.queue.Length() >= self.maxQueue {
		self.space.Wait()
	}
	if self.closed {
		cause := self.err
		self.lock.Unlock()
		release(pw)
		if cause != nil {
			return errors.Wrapf(ErrSenderClosed, "failed (%v)", cause)
		}
		return ErrSenderClosed
	}
	if self.queue.Length() >= self.maxQueue {
		self.lock.Unlock()
		release(pw)
		return errors.Wrapf(ErrQueueFull, "[%d]", self.maxQueue)
	}
	self.queue.Add(pw)
	self.ready.Signal()
	self.lock.Unlock()
	return nil
}

// Run transmits queued writers until Close has been called and the queue is
// drained, or until a write fails. Only the first call runs; Run after a Close
// that already drained the queue returns immediately.
func (self *Sender) Run() {
	self.lock.Lock()
	if self.started {
		self.lock.Unlock()
		return
	}
	self.started = true
	self.lock.Unlock()

	logrus.Debug("started")
	defer logrus.Debug("exited")
	defer close(self.Done)

	for {
		self.lock.Lock()
		for self.queue.Length() == 0 && !self.closed {
			self.ready.Wait()
		}
		if self.queue.Length() == 0 {
			self.lock.Unlock()
			return
		}
		pw := self.queue.Remove().(*Writer)
		self.space.Signal()
		self.lock.Unlock()

		err := self.transmit(pw)
		release(pw)
		if err != nil {
			logrus.Errorf("error transmitting (%v)", err)
			self.fail(err)
			return
		}
	}
}

func (self *Sender) transmit(pw *Writer) error {
	frame, err := AppendFrame(self.frame[:0], self.seq.Next(), pw.Bytes())
	if err != nil {
		return err
	}
	self.frame = frame
	n, err := self.w.Write(frame)
	if err != nil {
		return errors.Wrap(err, "error writing frame")
	}
	if n != len(frame) {
		return errors.Errorf("short frame write [%d != %d]", n, len(frame))
	}
	return nil
}

func (self *Sender) fail(err error) {
	self.lock.Lock()
	self.err = err
	self.closed = true
	pending := self.drain()
	self.space.Broadcast()
	self.lock.Unlock()

	for _, pw := range pending {
		release(pw)
	}
}

// drain empties the queue. Caller holds lock.
func (self *Sender) drain() []*Writer {
	var pending []*Writer
	for self.queue.Length() > 0 {
		pending = append(pending, self.queue.Remove().(*Writer))
	}
	return pending
}

// Close stops accepting writers. A running Run drains what is already queued
// and then closes Done. Without one, Close releases the queued writers and
// closes Done itself.
func (self *Sender) Close() {
	self.lock.Lock()
	if self.closed && self.started {
		self.lock.Unlock()
		return
	}
	self.closed = true
	self.ready.Broadcast()
	self.space.Broadcast()
	if self.started {
		self.lock.Unlock()
		return
	}
	self.started = true
	pending := self.drain()
	self.lock.Unlock()

	for _, pw := range pending {
		release(pw)
	}
	close(self.Done)
}

func (self *Sender) Pending() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.queue.Length()
}

func (self *Sender) Err() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.err
}

func release(pw *Writer) {
	if err := pw.Close(); err != nil {
		logrus.Errorf("error releasing writer (%v)", err)
	}
}
