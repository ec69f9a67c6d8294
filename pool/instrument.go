package pool

import (
	"time"

	"github.com/pkg/errors"
)

type Instrument interface {
	NewInstance(id string) InstrumentInstance
}

type InstrumentInstance interface {
	// lifecycle of pooled instances
	Allocated()
	Acquired()
	Released()

	// diagnostics
	InvalidRelease()
	Leaked(age time.Duration)

	// instrument lifecycle
	Shutdown()
}

func NewInstrument(name string, config map[string]interface{}) (i Instrument, err error) {
	switch name {
	case "nil", "":
		return NewNilInstrument(), nil
	case "logger":
		return NewLoggerInstrument(), nil
	case "metrics":
		mi, err := NewMetricsInstrument(config)
		if err != nil {
			return nil, err
		}
		return mi, nil
	default:
		return nil, errors.Errorf("unknown instrument '%s'", name)
	}
}
