package sensor

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
)

// FakeDevice simulates an ADS1263 for hardware-free runs. It keeps a
// register file, records commands and produces codes around a nominal
// voltage per channel.
type FakeDevice struct {
	// Voltages holds the nominal signed differential voltage per channel.
	Voltages map[int]float64
	// Ref is the full-scale reference used to turn voltages into codes.
	Ref float64
	// Jitter is the peak noise added to every voltage, in volts.
	Jitter float64
	// TimeoutRate is the probability of a channel timing out.
	TimeoutRate float64

	mu       sync.Mutex
	rnd      *rand.Rand
	regs     [numRegisters]byte
	commands []byte
	writeLog [][2]byte
	mode     Mode
	closed   bool
}

// SimulatedVoltages are plausible readings for the default channel layout at
// room temperature: two thermistor dividers and a small thermopile signal.
var SimulatedVoltages = map[int]float64{
	0: 0.0358,
	1: 0.938,
	2: 0.0005,
}

func NewFakeDevice(ref float64) *FakeDevice {
	v := make(map[int]float64, len(SimulatedVoltages))
	for k, x := range SimulatedVoltages {
		v[k] = x
	}
	return &FakeDevice{
		Voltages: v,
		Ref:      ref,
		Jitter:   0.0002,
		rnd:      rand.New(rand.NewSource(1)),
	}
}

func (f *FakeDevice) Init(rate DataRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("fake: device closed")
	}
	f.regs[RegID] = ChipIDADS1263 << 5
	f.regs[RegMode2] = mode2PGABypass | byte(rate)
	f.regs[RegRefMux] = refMuxVDDVSS
	f.regs[RegMode0] = mode0Delay35us
	f.regs[RegMode1] = mode1FIR
	f.regs[RegInpMux] = InpMuxDefault
	return nil
}

func (f *FakeDevice) WriteRegister(addr, value byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(addr) >= len(f.regs) {
		return errors.New("fake: register out of range")
	}
	f.regs[addr] = value
	f.writeLog = append(f.writeLog, [2]byte{addr, value})
	return nil
}

func (f *FakeDevice) WriteCommand(op byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, op)
	return nil
}

func (f *FakeDevice) SetMode(m Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
	return nil
}

func (f *FakeDevice) SampleChannels(ctx context.Context, channels []int) ([]Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("fake: device closed")
	}
	out := make([]Sample, 0, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if _, err := muxForChannel(f.mode, ch); err != nil {
			return out, err
		}
		if f.TimeoutRate > 0 && f.rnd.Float64() < f.TimeoutRate {
			out = append(out, Sample{Channel: ch, Status: StatusTimeout})
			continue
		}
		v := f.Voltages[ch] + (f.rnd.Float64()*2-1)*f.Jitter
		out = append(out, Sample{Channel: ch, Code: EncodeVoltage(v, f.Ref), Status: StatusOK})
	}
	return out, nil
}

func (f *FakeDevice) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Register returns the current value of a simulated register.
func (f *FakeDevice) Register(addr byte) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[addr]
}

// Commands returns the command opcodes received so far.
func (f *FakeDevice) Commands() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.commands...)
}

// Writes returns every register write as (address, value) pairs.
func (f *FakeDevice) Writes() [][2]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]byte(nil), f.writeLog...)
}

func (f *FakeDevice) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *FakeDevice) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// EncodeVoltage returns the code the converter produces for a signed
// differential voltage v at full scale ref. Negative voltages use the
// two's complement word, which is what the chip shifts out.
func EncodeVoltage(v, ref float64) int32 {
	if v >= 0 {
		c := math.Round(v / ref * math.MaxInt32)
		if c > math.MaxInt32 {
			c = math.MaxInt32
		}
		return int32(c)
	}
	c := math.Round(-v / ref * (1 << 31))
	if c > 1<<31 {
		c = 1 << 31
	}
	return int32(-int64(c))
}
