package pool

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	n     int
	dirty bool
}

type countingInstrument struct {
	lock sync.Mutex
	ii   *countingInstance
}

func (self *countingInstrument) NewInstance(string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.ii = &countingInstance{}
	return self.ii
}

type countingInstance struct {
	lock                                                  sync.Mutex
	allocated, acquired, released, invalid, leaked, downs int
}

func (self *countingInstance) bump(v *int) {
	self.lock.Lock()
	*v++
	self.lock.Unlock()
}

func (self *countingInstance) get(v *int) int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return *v
}

func (self *countingInstance) Allocated()           { self.bump(&self.allocated) }
func (self *countingInstance) Acquired()            { self.bump(&self.acquired) }
func (self *countingInstance) Released()            { self.bump(&self.released) }
func (self *countingInstance) InvalidRelease()      { self.bump(&self.invalid) }
func (self *countingInstance) Leaked(time.Duration) { self.bump(&self.leaked) }
func (self *countingInstance) Shutdown()            { self.bump(&self.downs) }

func newItemPool(t *testing.T, cfg Config[*item]) *Pool[*item] {
	if cfg.New == nil {
		cfg.New = func() *item { return &item{} }
	}
	if cfg.Reset == nil {
		cfg.Reset = func(i *item) {
			i.n = 0
			i.dirty = false
		}
	}
	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewRequiresFactory(t *testing.T) {
	_, err := New(Config[*item]{Id: "broken"})
	assert.Equal(t, ErrNoFactory, errors.Cause(err))
}

func TestAcquireWithoutReleaseIsDistinct(t *testing.T) {
	p := newItemPool(t, Config[*item]{Id: "distinct"})
	seen := make(map[*item]bool)
	for i := 0; i < 100; i++ {
		v := p.Acquire()
		assert.False(t, seen[v])
		seen[v] = true
	}
	s := p.Stats()
	assert.Equal(t, int64(100), s.Allocated)
	assert.Equal(t, 100, s.Outstanding)
	assert.Equal(t, 100, s.HighWater)
}

func TestReleaseThenAcquireReturnsSameInstance(t *testing.T) {
	p := newItemPool(t, Config[*item]{Id: "lifo"})
	a := p.Acquire()
	b := p.Acquire()
	require.NoError(t, p.Release(a))
	require.NoError(t, p.Release(b))
	assert.Same(t, b, p.Acquire())
	assert.Same(t, a, p.Acquire())
	assert.Equal(t, int64(2), p.Stats().Allocated)
}

func TestReleaseResets(t *testing.T) {
	released := 0
	p := newItemPool(t, Config[*item]{
		Id:        "reset",
		OnRelease: func(i *item) { released++; assert.False(t, i.dirty) },
	})
	v := p.Acquire()
	v.n = 4
	v.dirty = true
	require.NoError(t, p.Release(v))
	v = p.Acquire()
	assert.Equal(t, 0, v.n)
	assert.False(t, v.dirty)
	assert.Equal(t, 1, released)
}

func TestDoubleRelease(t *testing.T) {
	ci := &countingInstrument{}
	p := newItemPool(t, Config[*item]{Id: "double", Instrument: ci})
	v := p.Acquire()
	require.NoError(t, p.Release(v))
	err := p.Release(v)
	assert.Equal(t, ErrNotCheckedOut, errors.Cause(err))

	s := p.Stats()
	assert.Equal(t, 1, s.Free)
	assert.Equal(t, int64(1), s.InvalidReleases)
	assert.Equal(t, 1, ci.ii.get(&ci.ii.invalid))

	assert.Same(t, v, p.Acquire())
	assert.NotSame(t, v, p.Acquire())
}

func TestReleaseForeignInstance(t *testing.T) {
	p := newItemPool(t, Config[*item]{Id: "foreign"})
	assert.Equal(t, ErrNotCheckedOut, errors.Cause(p.Release(&item{})))
	assert.Equal(t, 0, p.Stats().Free)
}

func TestAllocationsBoundedByHighWater(t *testing.T) {
	p := newItemPool(t, Config[*item]{Id: "highwater"})
	rng := rand.New(rand.NewSource(7))
	var held []*item
	for i := 0; i < 10000; i++ {
		if len(held) > 0 && rng.Intn(2) == 0 {
			j := rng.Intn(len(held))
			require.NoError(t, p.Release(held[j]))
			held = append(held[:j], held[j+1:]...)
		} else {
			held = append(held, p.Acquire())
		}
		s := p.Stats()
		require.LessOrEqual(t, s.Allocated, int64(s.HighWater))
		require.Equal(t, len(held), s.Outstanding)
	}
}

func TestHighWaterCountsAllocationInFlight(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	calls := 0
	p := newItemPool(t, Config[*item]{
		Id: "inflight",
		New: func() *item {
			calls++
			if calls == 2 {
				close(entered)
				<-gate
			}
			return &item{}
		},
	})
	first := p.Acquire()

	acquired := make(chan *item)
	go func() { acquired <- p.Acquire() }()
	<-entered
	require.NoError(t, p.Release(first))
	close(gate)
	second := <-acquired

	assert.NotSame(t, first, second)
	s := p.Stats()
	assert.Equal(t, int64(2), s.Allocated)
	assert.Equal(t, 2, s.HighWater)
	assert.LessOrEqual(t, s.Allocated, int64(s.HighWater))
	assert.Equal(t, 1, s.Outstanding)
	assert.Equal(t, 1, s.Free)
}

func TestConcurrentAcquireRelease(t *testing.T) {
	ci := &countingInstrument{}
	p := newItemPool(t, Config[*item]{Id: "concurrent", Instrument: ci})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				v := p.Acquire()
				v.n++
				assert.NoError(t, p.Release(v))
			}
		}()
	}
	wg.Wait()

	s := p.Stats()
	assert.Equal(t, int64(8000), s.Acquires)
	assert.Equal(t, int64(8000), s.Releases)
	assert.Equal(t, 0, s.Outstanding)
	assert.LessOrEqual(t, s.Allocated, int64(8))
	assert.LessOrEqual(t, s.Allocated, int64(s.HighWater))
	assert.Equal(t, int(s.Allocated), ci.ii.get(&ci.ii.allocated))
	assert.Equal(t, 8000, ci.ii.get(&ci.ii.released))
}

func TestLeakReportedOnce(t *testing.T) {
	ci := &countingInstrument{}
	p := newItemPool(t, Config[*item]{
		Id:                "leaky",
		LeakCheck:         true,
		LeakTimeout:       time.Hour,
		LeakCheckInterval: time.Hour,
		Instrument:        ci,
	})
	leaked := p.Acquire()
	returned := p.Acquire()
	require.NoError(t, p.Release(returned))

	assert.Equal(t, 0, p.checkLeaks(time.Now()))
	assert.Equal(t, 1, p.checkLeaks(time.Now().Add(2*time.Hour)))
	assert.Equal(t, 0, p.checkLeaks(time.Now().Add(3*time.Hour)))
	assert.Equal(t, int64(1), p.Stats().Leaks)
	assert.Equal(t, 1, ci.ii.get(&ci.ii.leaked))

	require.NoError(t, p.Release(leaked))
	assert.Equal(t, 0, p.Stats().Outstanding)
}

func TestLeakMonitor(t *testing.T) {
	ci := &countingInstrument{}
	p := newItemPool(t, Config[*item]{
		Id:                "monitor",
		LeakCheck:         true,
		LeakTimeout:       10 * time.Millisecond,
		LeakCheckInterval: 5 * time.Millisecond,
		Instrument:        ci,
	})
	_ = p.Acquire()
	assert.Eventually(t, func() bool { return p.Stats().Leaks == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestCloseDiscardsLaterReleases(t *testing.T) {
	ci := &countingInstrument{}
	p, err := New(Config[*item]{Id: "closing", New: func() *item { return &item{} }, Instrument: ci})
	require.NoError(t, err)
	v := p.Acquire()
	p.Close()
	p.Close()
	require.NoError(t, p.Release(v))
	assert.Equal(t, 0, p.Stats().Free)
	assert.Equal(t, 1, ci.ii.get(&ci.ii.downs))
}

func TestNewInstrument(t *testing.T) {
	i, err := NewInstrument("nil", nil)
	require.NoError(t, err)
	assert.NotNil(t, i.NewInstance("x"))

	i, err = NewInstrument("logger", nil)
	require.NoError(t, err)
	assert.NotNil(t, i.NewInstance("x"))

	_, err = NewInstrument("bogus", nil)
	assert.Error(t, err)
}

func TestMetricsInstrumentWritesSamples(t *testing.T) {
	root := t.TempDir()
	mi, err := NewMetricsInstrument(map[string]interface{}{"path": root, "ctrl": false, "snapshot_ms": 1})
	require.NoError(t, err)
	defer func() { _ = mi.Close() }()

	p, err := New(Config[*item]{Id: "metered", New: func() *item { return &item{} }, Instrument: mi})
	require.NoError(t, err)
	v := p.Acquire()
	require.NoError(t, p.Release(v))
	p.Close()

	require.NoError(t, mi.WriteAllSamples())
	matches, err := filepath.Glob(filepath.Join(root, "metered_*", "*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, len(MetricsDatasets))
	_, err = os.Stat(filepath.Join(filepath.Dir(matches[0]), "metrics.id"))
	assert.NoError(t, err)

	mi.Clean()
}

func TestMetricsInstrumentForgetsShutdownPools(t *testing.T) {
	root := t.TempDir()
	mi, err := NewMetricsInstrument(map[string]interface{}{"path": root, "ctrl": false, "snapshot_ms": 1000})
	require.NoError(t, err)
	defer func() { _ = mi.Close() }()

	closed, err := New(Config[*item]{Id: "closed", New: func() *item { return &item{} }, Instrument: mi})
	require.NoError(t, err)
	open, err := New(Config[*item]{Id: "open", New: func() *item { return &item{} }, Instrument: mi})
	require.NoError(t, err)
	defer open.Close()
	closed.Close()
	assert.Equal(t, 2, mi.Instances())

	require.NoError(t, mi.WriteAllSamples())
	assert.Equal(t, 1, mi.Instances())
	require.NoError(t, mi.WriteAllSamples())

	matches, err := filepath.Glob(filepath.Join(root, "closed_*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	matches, err = filepath.Glob(filepath.Join(root, "open_*"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func BenchmarkAcquireRelease(b *testing.B) {
	p, err := New(Config[*item]{Id: "bench", New: func() *item { return &item{} }})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v := p.Acquire()
		if err := p.Release(v); err != nil {
			b.Fatal(err)
		}
	}
}
