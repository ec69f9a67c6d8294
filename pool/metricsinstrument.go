package pool

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netgore/packetpool/cf"
	"github.com/netgore/packetpool/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const MetricsId = "packetpool.pool"

var MetricsDatasets = []string{
	"allocations",
	"acquires",
	"releases",
	"outstanding",
	"invalid_releases",
	"leaks",
}

// MetricsInstrument samples pool counters on an interval and writes them out
// as CSV time series on demand. When ctrl is enabled it listens on a unix
// socket under path for the start, stop, write and clean commands.
type MetricsInstrument struct {
	lock      *sync.Mutex
	config    *metricsInstrumentConfig
	enabled   int32
	instances []*metricsInstrumentInstance
	ctrl      *util.CtrlListener
}

type metricsInstrumentConfig struct {
	Path       string `cf:"path"`
	SnapshotMs int    `cf:"snapshot_ms"`
	Enabled    bool   `cf:"enabled"`
	Ctrl       bool   `cf:"ctrl"`
}

func NewMetricsInstrument(config map[string]interface{}) (*MetricsInstrument, error) {
	i := &MetricsInstrument{
		lock: new(sync.Mutex),
		config: &metricsInstrumentConfig{
			Path:       os.TempDir(),
			SnapshotMs: 1000,
			Enabled:    true,
			Ctrl:       true,
		},
	}
	if err := cf.Load(config, i.config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	if i.config.SnapshotMs < 1 {
		return nil, errors.Errorf("invalid snapshot_ms [%d]", i.config.SnapshotMs)
	}
	if i.config.Enabled {
		i.enabled = 1
	}
	if i.config.Ctrl {
		cl, err := util.GetCtrlListener(i.config.Path, "packetpool")
		if err != nil {
			return nil, errors.Wrap(err, "unable to get metrics ctrl listener")
		}
		cl.AddCallback("start", func(string) error {
			atomic.StoreInt32(&i.enabled, 1)
			return nil
		})
		cl.AddCallback("stop", func(string) error {
			atomic.StoreInt32(&i.enabled, 0)
			return nil
		})
		cl.AddCallback("write", func(string) error {
			err := i.WriteAllSamples()
			if err != nil {
				logrus.Errorf("error writing samples (%v)", err)
			}
			return err
		})
		cl.AddCallback("clean", func(string) error {
			i.Clean()
			return nil
		})
		cl.Start()
		i.ctrl = cl
	}
	logrus.Info(cf.Dump("config", i.config))
	return i, nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()
	ii := &metricsInstrumentInstance{
		id:      id,
		enabled: &self.enabled,
		close:   make(chan struct{}),
	}
	go ii.snapshotter(self.config.SnapshotMs)
	self.instances = append(self.instances, ii)
	return ii
}

// WriteAllSamples writes one directory per pool instance under the configured
// path, each holding a metrics.id and one CSV per dataset. Instances whose
// pool has shut down are forgotten once written.
func (self *MetricsInstrument) WriteAllSamples() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	if err := os.MkdirAll(self.config.Path, 0755); err != nil {
		return err
	}
	var live []*metricsInstrumentInstance
	for i, ii := range self.instances {
		if err := self.writeSamples(ii); err != nil {
			self.instances = append(live, self.instances[i:]...)
			return err
		}
		if !ii.isShutdown() {
			live = append(live, ii)
		}
	}
	self.instances = live
	return nil
}

func (self *MetricsInstrument) writeSamples(ii *metricsInstrumentInstance) error {
	prefix := strings.ReplaceAll(fmt.Sprintf("%s_", ii.id), string(os.PathSeparator), "-")
	outPath, err := os.MkdirTemp(self.config.Path, prefix)
	if err != nil {
		return err
	}
	logrus.Infof("writing metrics to: %s", outPath)

	if err := util.WriteMetricsId(MetricsId, outPath, map[string]string{"pool": ii.id}); err != nil {
		return err
	}
	for name, samples := range ii.snapshot() {
		if err := util.WriteSamples(name, outPath, samples); err != nil {
			return err
		}
	}
	return nil
}

func (self *MetricsInstrument) Instances() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return len(self.instances)
}

func (self *MetricsInstrument) Clean() {
	self.lock.Lock()
	defer self.lock.Unlock()
	for _, ii := range self.instances {
		ii.clean()
	}
	logrus.Infof("cleaned")
}

func (self *MetricsInstrument) Close() error {
	if self.ctrl != nil {
		return self.ctrl.Close()
	}
	return nil
}

type metricsInstrumentInstance struct {
	id      string
	enabled *int32

	allocations     int64
	acquires        int64
	releases        int64
	invalidReleases int64
	leaks           int64

	lock    sync.Mutex
	samples map[string][]*util.Sample
	close   chan struct{}
	once    sync.Once
	down    int32
}

func (self *metricsInstrumentInstance) Allocated()      { atomic.AddInt64(&self.allocations, 1) }
func (self *metricsInstrumentInstance) Acquired()       { atomic.AddInt64(&self.acquires, 1) }
func (self *metricsInstrumentInstance) Released()       { atomic.AddInt64(&self.releases, 1) }
func (self *metricsInstrumentInstance) InvalidRelease() { atomic.AddInt64(&self.invalidReleases, 1) }

func (self *metricsInstrumentInstance) Leaked(time.Duration) {
	atomic.AddInt64(&self.leaks, 1)
}

func (self *metricsInstrumentInstance) Shutdown() {
	self.once.Do(func() {
		self.sample(time.Now())
		atomic.StoreInt32(&self.down, 1)
		close(self.close)
	})
}

func (self *metricsInstrumentInstance) isShutdown() bool {
	return atomic.LoadInt32(&self.down) == 1
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Infof("started [%s]", self.id)
	defer logrus.Infof("exited [%s]", self.id)

	for {
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			if atomic.LoadInt32(self.enabled) == 1 {
				self.sample(time.Now())
			}
		case <-self.close:
			return
		}
	}
}

func (self *metricsInstrumentInstance) sample(now time.Time) {
	acquires := atomic.LoadInt64(&self.acquires)
	releases := atomic.LoadInt64(&self.releases)
	values := map[string]int64{
		"allocations":      atomic.LoadInt64(&self.allocations),
		"acquires":         acquires,
		"releases":         releases,
		"outstanding":      acquires - releases,
		"invalid_releases": atomic.LoadInt64(&self.invalidReleases),
		"leaks":            atomic.LoadInt64(&self.leaks),
	}

	self.lock.Lock()
	defer self.lock.Unlock()
	if self.samples == nil {
		self.samples = make(map[string][]*util.Sample)
	}
	for name, v := range values {
		self.samples[name] = append(self.samples[name], &util.Sample{Ts: now, V: v})
	}
}

func (self *metricsInstrumentInstance) snapshot() map[string][]*util.Sample {
	self.lock.Lock()
	defer self.lock.Unlock()
	out := make(map[string][]*util.Sample, len(MetricsDatasets))
	for _, name := range MetricsDatasets {
		out[name] = append([]*util.Sample(nil), self.samples[name]...)
	}
	return out
}

func (self *metricsInstrumentInstance) clean() {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.samples = nil
}
