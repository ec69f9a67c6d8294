// Package pool provides a checkout-tracking object pool.
//
// Unlike sync.Pool, a Pool never drops free instances on its own, reuses the
// most recently released instance first, and knows which instances are
// currently checked out. That bookkeeping lets it reject double releases and,
// optionally, report instances that stay checked out for too long.
package pool

import (
	"sync"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

var (
	ErrNotCheckedOut = errors.New("instance not checked out")
	ErrNoFactory     = errors.New("pool requires a factory")
)

const (
	DefaultLeakTimeout = 30 * time.Second
)

type Config[T comparable] struct {
	Id        string
	New       func() T
	Reset     func(T)
	OnRelease func(T)

	LeakCheck         bool
	LeakTimeout       time.Duration
	LeakCheckInterval time.Duration

	Instrument Instrument
}

type Stats struct {
	Allocated       int64
	Outstanding     int
	Free            int
	HighWater       int
	Acquires        int64
	Releases        int64
	Leaks           int64
	InvalidReleases int64
}

type checkout struct {
	key       leakKey
	releasing bool
}

type Pool[T comparable] struct {
	cfg      Config[T]
	lock     sync.Mutex
	free     []T
	out      map[T]*checkout
	waitlist *waitlist
	seq      uint64
	pending  int
	stats    Stats
	ii       InstrumentInstance
	close    chan struct{}
	closed   bool
	done     chan struct{}
}

func New[T comparable](cfg Config[T]) (*Pool[T], error) {
	if cfg.New == nil {
		return nil, errors.Wrapf(ErrNoFactory, "pool [%s]", cfg.Id)
	}
	if cfg.LeakTimeout <= 0 {
		cfg.LeakTimeout = DefaultLeakTimeout
	}
	if cfg.LeakCheckInterval <= 0 {
		cfg.LeakCheckInterval = cfg.LeakTimeout / 2
	}
	p := &Pool[T]{
		cfg:   cfg,
		out:   make(map[T]*checkout),
		close: make(chan struct{}),
		done:  make(chan struct{}),
	}
	if cfg.Instrument != nil {
		p.ii = cfg.Instrument.NewInstance(cfg.Id)
	} else {
		p.ii = nilInstrumentInstance{}
	}
	if cfg.LeakCheck {
		p.waitlist = newWaitlist()
		go p.monitor()
	} else {
		close(p.done)
	}
	return p, nil
}

func (self *Pool[T]) Id() string {
	return self.cfg.Id
}

// Acquire returns the most recently released free instance, or a new one
// from the factory when the free set is empty.
func (self *Pool[T]) Acquire() T {
	self.lock.Lock()
	var v T
	allocated := false
	if n := len(self.free); n > 0 {
		v = self.free[n-1]
		var zero T
		self.free[n-1] = zero
		self.free = self.free[:n-1]
	} else {
		// an instance under construction counts as checked out
		self.pending++
		self.raiseHighWater()
		self.lock.Unlock()
		v = self.cfg.New()
		allocated = true
		self.lock.Lock()
		self.pending--
		self.stats.Allocated++
	}

	co := &checkout{}
	if self.waitlist != nil {
		self.seq++
		co.key = leakKey{deadline: time.Now().Add(self.cfg.LeakTimeout), seq: self.seq}
		self.waitlist.add(co.key, v)
	}
	self.out[v] = co
	self.stats.Acquires++
	self.raiseHighWater()
	self.lock.Unlock()

	if allocated {
		self.ii.Allocated()
	}
	self.ii.Acquired()
	return v
}

// Release resets v and returns it to the free set. Releasing an instance
// that is not checked out from this pool fails with ErrNotCheckedOut and
// leaves the pool untouched. An instance counts as outstanding until it is
// back in the free set.
func (self *Pool[T]) Release(v T) error {
	self.lock.Lock()
	co, found := self.out[v]
	if !found || co.releasing {
		self.stats.InvalidReleases++
		self.lock.Unlock()
		self.ii.InvalidRelease()
		return errors.Wrapf(ErrNotCheckedOut, "pool [%s]", self.cfg.Id)
	}
	co.releasing = true
	if self.waitlist != nil {
		self.waitlist.remove(co.key)
	}
	self.lock.Unlock()

	if self.cfg.Reset != nil {
		self.cfg.Reset(v)
	}
	if self.cfg.OnRelease != nil {
		self.cfg.OnRelease(v)
	}

	self.lock.Lock()
	delete(self.out, v)
	self.stats.Releases++
	if !self.closed {
		self.free = append(self.free, v)
	}
	self.lock.Unlock()

	self.ii.Released()
	return nil
}

func (self *Pool[T]) raiseHighWater() {
	if n := len(self.out) + self.pending; n > self.stats.HighWater {
		self.stats.HighWater = n
	}
}

func (self *Pool[T]) Stats() Stats {
	self.lock.Lock()
	defer self.lock.Unlock()
	s := self.stats
	s.Outstanding = len(self.out)
	s.Free = len(self.free)
	return s
}

// Close stops the leak monitor and drops the free set. Instances released
// after Close are discarded.
func (self *Pool[T]) Close() {
	self.lock.Lock()
	if self.closed {
		self.lock.Unlock()
		return
	}
	self.closed = true
	self.free = nil
	close(self.close)
	self.lock.Unlock()

	<-self.done
	self.ii.Shutdown()
}

func (self *Pool[T]) monitor() {
	log := pfxlog.ContextLogger(self.cfg.Id)
	log.Debugf("leak monitor started, timeout [%s]", self.cfg.LeakTimeout)
	defer close(self.done)
	defer log.Debug("leak monitor exited")

	for {
		select {
		case <-self.close:
			return
		case <-time.After(self.cfg.LeakCheckInterval):
			self.checkLeaks(time.Now())
		}
	}
}

// checkLeaks reports every checkout whose deadline is at or before now. Each
// checkout is reported once; it stays checked out.
func (self *Pool[T]) checkLeaks(now time.Time) int {
	self.lock.Lock()
	expired := self.waitlist.expired(now)
	self.stats.Leaks += int64(len(expired))
	self.lock.Unlock()

	for _, key := range expired {
		age := now.Sub(key.deadline) + self.cfg.LeakTimeout
		pfxlog.ContextLogger(self.cfg.Id).Warnf("instance #%d checked out for [%s], likely leaked", key.seq, age)
		self.ii.Leaked(age)
	}
	return len(expired)
}
