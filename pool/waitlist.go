package pool

import (
	"time"

	"github.com/emirpasic/gods/trees/btree"
	"github.com/emirpasic/gods/utils"
)

// leakKey orders checkouts by deadline; seq breaks ties between checkouts
// sharing a clock reading.
type leakKey struct {
	deadline time.Time
	seq      uint64
}

type waitlist struct {
	deadlines *btree.Tree
}

func newWaitlist() *waitlist {
	return &waitlist{deadlines: btree.NewWith(64, leakKeyComparator)}
}

func (self *waitlist) add(key leakKey, v interface{}) {
	self.deadlines.Put(key, v)
}

func (self *waitlist) remove(key leakKey) {
	self.deadlines.Remove(key)
}

func (self *waitlist) size() int {
	return self.deadlines.Size()
}

// expired removes and returns, in deadline order, every key due at or before now.
func (self *waitlist) expired(now time.Time) []leakKey {
	var keys []leakKey
	for !self.deadlines.Empty() {
		key := self.deadlines.LeftKey().(leakKey)
		if key.deadline.After(now) {
			break
		}
		self.deadlines.Remove(key)
		keys = append(keys, key)
	}
	return keys
}

func leakKeyComparator(a, b interface{}) int {
	aAsserted := a.(leakKey)
	bAsserted := b.(leakKey)
	if c := utils.TimeComparator(aAsserted.deadline, bAsserted.deadline); c != 0 {
		return c
	}
	if aAsserted.seq > bAsserted.seq {
		return 1
	} else if aAsserted.seq < bAsserted.seq {
		return -1
	}
	return 0
}
