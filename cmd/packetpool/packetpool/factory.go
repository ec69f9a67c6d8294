package packetpool

import (
	"github.com/netgore/packetpool/cf"
	"github.com/netgore/packetpool/packet"
	"github.com/netgore/packetpool/pool"
	"github.com/netgore/packetpool/transport"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Environment bundles what a command needs to move packets: the selected
// transport, the loaded profile, and the pool instrument.
type Environment struct {
	Protocol   transport.Protocol
	Profile    *packet.Profile
	Instrument pool.Instrument
}

func NewEnvironment() (*Environment, error) {
	p, err := LoadProfile()
	if err != nil {
		return nil, err
	}
	protocol, err := transport.ProtocolFor(SelectedProtocol)
	if err != nil {
		return nil, err
	}
	i, err := NewInstrument()
	if err != nil {
		return nil, err
	}
	return &Environment{Protocol: protocol, Profile: p, Instrument: i}, nil
}

func LoadProfile() (*packet.Profile, error) {
	p := packet.NewBaselineProfile()
	if configPath != "" {
		data, err := cf.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := p.Load(data); err != nil {
			return nil, errors.Wrapf(err, "unable to load profile [%s]", configPath)
		}
	}
	if configDump {
		logrus.Info(p.Dump())
	}
	return p, nil
}

func NewInstrument() (pool.Instrument, error) {
	config := map[string]interface{}{"path": metricsPath, "ctrl": metricsCtrl}
	i, err := pool.NewInstrument(SelectedInstrument, config)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create instrument")
	}
	return i, nil
}

// Finish flushes instrument output that is only written on demand.
func (self *Environment) Finish() {
	if mi, ok := self.Instrument.(*pool.MetricsInstrument); ok {
		if err := mi.WriteAllSamples(); err != nil {
			logrus.Errorf("error writing metrics (%v)", err)
		}
		if err := mi.Close(); err != nil {
			logrus.Errorf("error closing metrics ctrl (%v)", err)
		}
	}
}
