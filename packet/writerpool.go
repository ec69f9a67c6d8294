package packet

import (
	"github.com/netgore/packetpool/pool"
	"github.com/pkg/errors"
)

type WriterPool struct {
	profile *Profile
	store   *pool.Pool[*Writer]
}

func NewWriterPool(id string, profile *Profile, i pool.Instrument) (*WriterPool, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	wp := &WriterPool{profile: profile}
	store, err := pool.New(pool.Config[*Writer]{
		Id:                id,
		New:               func() *Writer { return newWriter(wp) },
		Reset:             func(w *Writer) { resetWriter(w, profile) },
		LeakCheck:         profile.LeakCheck,
		LeakTimeout:       profile.LeakTimeout,
		LeakCheckInterval: profile.LeakCheckInterval,
		Instrument:        i,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create writer pool")
	}
	wp.store = store
	return wp, nil
}

// Acquire checks out an empty writer in Write mode.
func (self *WriterPool) Acquire() *Writer {
	return self.store.Acquire()
}

// With runs f with a checked-out writer and releases it on every exit path,
// including a panic in f. f must not Close the writer itself.
func (self *WriterPool) With(f func(w *Writer) error) (err error) {
	w := self.Acquire()
	defer func() {
		if cErr := w.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return f(w)
}

func (self *WriterPool) Profile() *Profile {
	return self.profile
}

func (self *WriterPool) Stats() pool.Stats {
	return self.store.Stats()
}

func (self *WriterPool) Close() {
	self.store.Close()
}
