package packet

import (
	"time"

	"github.com/netgore/packetpool/cf"
	"github.com/pkg/errors"
)

const profileVersion = 1

// MaxFramePayloadSz is the largest payload a frame length field can describe.
const MaxFramePayloadSz = 65535 - seqSz

type Profile struct {
	WriterBufferSz    int           `cf:"writer_buffer_sz"`
	MaxRetainedSz     int           `cf:"max_retained_sz"`
	MaxPacketSz       int           `cf:"max_packet_sz"`
	ReaderBufferSz    int           `cf:"reader_buffer_sz"`
	SendQueueLen      int           `cf:"send_queue_len"`
	RandomizeSeq      bool          `cf:"randomize_seq"`
	LeakCheck         bool          `cf:"leak_check"`
	LeakTimeout       time.Duration `cf:"leak_timeout"`
	LeakCheckInterval time.Duration `cf:"leak_check_interval"`
}

func NewBaselineProfile() *Profile {
	return &Profile{
		WriterBufferSz:    1024,
		MaxRetainedSz:     64 * 1024,
		MaxPacketSz:       MaxFramePayloadSz,
		ReaderBufferSz:    64 * 1024,
		SendQueueLen:      1024,
		RandomizeSeq:      false,
		LeakCheck:         false,
		LeakTimeout:       30 * time.Second,
		LeakCheckInterval: 5 * time.Second,
	}
}

func (self *Profile) Load(data map[string]interface{}) error {
	if v, found := data["profile_version"]; found {
		if i, ok := v.(int); ok {
			if i != profileVersion {
				return errors.Errorf("invalid profile version [%d != %d]", i, profileVersion)
			}
		} else if i, ok := v.(int64); ok {
			if i != profileVersion {
				return errors.Errorf("invalid profile version [%d != %d]", i, profileVersion)
			}
		} else {
			return errors.New("invalid 'profile_version' value")
		}
	} else {
		return errors.New("missing 'profile_version'")
	}
	if err := cf.Load(data, self); err != nil {
		return errors.Wrap(err, "unable to load profile")
	}
	return self.Validate()
}

func (self *Profile) Validate() error {
	if self.WriterBufferSz < 1 {
		return errors.Errorf("writer_buffer_sz must be positive [%d]", self.WriterBufferSz)
	}
	if self.MaxRetainedSz < self.WriterBufferSz {
		return errors.Errorf("max_retained_sz [%d] smaller than writer_buffer_sz [%d]", self.MaxRetainedSz, self.WriterBufferSz)
	}
	if self.MaxPacketSz < 1 || self.MaxPacketSz > MaxFramePayloadSz {
		return errors.Errorf("max_packet_sz [%d] outside [1, %d]", self.MaxPacketSz, MaxFramePayloadSz)
	}
	if self.ReaderBufferSz < self.MaxPacketSz {
		return errors.Errorf("reader_buffer_sz [%d] smaller than max_packet_sz [%d]", self.ReaderBufferSz, self.MaxPacketSz)
	}
	if self.SendQueueLen < 1 {
		return errors.Errorf("send_queue_len must be positive [%d]", self.SendQueueLen)
	}
	if self.LeakCheck && self.LeakTimeout <= 0 {
		return errors.Errorf("leak_timeout must be positive when leak_check is enabled")
	}
	return nil
}

func (self *Profile) Dump() string {
	return cf.Dump("packet.Profile", self)
}
