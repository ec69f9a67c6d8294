package pool

import "time"

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(string) InstrumentInstance {
	return nilInstrumentInstance{}
}

type nilInstrumentInstance struct{}

func (nilInstrumentInstance) Allocated()           {}
func (nilInstrumentInstance) Acquired()            {}
func (nilInstrumentInstance) Released()            {}
func (nilInstrumentInstance) InvalidRelease()      {}
func (nilInstrumentInstance) Leaked(time.Duration) {}
func (nilInstrumentInstance) Shutdown()            {}
