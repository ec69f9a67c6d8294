package pool

import (
	"time"

	"github.com/sirupsen/logrus"
)

type loggerInstrument struct{}

func NewLoggerInstrument() Instrument {
	return &loggerInstrument{}
}

func (self *loggerInstrument) NewInstance(id string) InstrumentInstance {
	return &loggerInstrumentInstance{log: logrus.WithField("context", id)}
}

type loggerInstrumentInstance struct {
	log *logrus.Entry
}

func (self *loggerInstrumentInstance) Allocated() {
	self.log.Info("allocate")
}

func (self *loggerInstrumentInstance) Acquired() {
	self.log.Debug("acquire")
}

func (self *loggerInstrumentInstance) Released() {
	self.log.Debug("release")
}

func (self *loggerInstrumentInstance) InvalidRelease() {
	self.log.Error("release of instance not checked out")
}

func (self *loggerInstrumentInstance) Leaked(age time.Duration) {
	self.log.Warnf("leaked? outstanding for [%s]", age)
}

func (self *loggerInstrumentInstance) Shutdown() {
	self.log.Info("shutdown")
}
