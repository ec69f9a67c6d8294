package util

import "sync/atomic"

// Sequence hands out frame sequence numbers. It wraps at math.MaxUint32.
type Sequence struct {
	nextValue uint32
}

func NewSequence(nextValue uint32) *Sequence {
	return &Sequence{nextValue: nextValue - 1}
}

func (self *Sequence) ResetTo(nextValue uint32) {
	atomic.StoreUint32(&self.nextValue, nextValue-1)
}

func (self *Sequence) Next() uint32 {
	return atomic.AddUint32(&self.nextValue, 1)
}
