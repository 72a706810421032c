package sensor

import "context"

// Mode selects how input channels are routed to the ADC1 multiplexer.
type Mode int

const (
	ModeSingleEnded Mode = iota
	ModeDifferential
)

func (m Mode) String() string {
	switch m {
	case ModeSingleEnded:
		return "single-ended"
	case ModeDifferential:
		return "differential"
	default:
		return "unknown"
	}
}

// Status reports whether a channel produced a usable conversion.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusChecksum
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusChecksum:
		return "checksum mismatch"
	default:
		return "unknown"
	}
}

// Sample is one raw conversion for a channel. Code is only meaningful when
// Status is StatusOK.
type Sample struct {
	Channel int
	Code    int32
	Status  Status
}

func (s Sample) OK() bool { return s.Status == StatusOK }

// Device is the register level view of the converter used by the
// calibration sequence and the sampling loop.
type Device interface {
	Init(rate DataRate) error
	WriteRegister(addr, value byte) error
	WriteCommand(op byte) error
	SetMode(m Mode) error
	// SampleChannels converts every channel in order. A channel that does not
	// become ready in time is reported with StatusTimeout; only transport
	// failures are returned as errors.
	SampleChannels(ctx context.Context, channels []int) ([]Sample, error)
	Close() error
}

var (
	_ Device = (*ADS1263)(nil)
	_ Device = (*FakeDevice)(nil)
)
