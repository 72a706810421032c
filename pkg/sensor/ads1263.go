package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ericogr/ads1263-thermometry/pkg/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	resetPulse   = 200 * time.Millisecond
	muxSettle    = 2 * time.Millisecond
	drdyPoll     = 100 * time.Microsecond
	maxDataPolls = 16
	maxSpeed     = 2 * physic.MegaHertz
)

type ADS1263 struct {
	port        spi.PortCloser
	c           spi.Conn
	rst         gpio.PinOut
	drdy        gpio.PinIn
	cs          gpio.PinOut
	mode        Mode
	drdyTimeout time.Duration
	sleep       func(time.Duration)
	closed      bool
}

// NewADS1263 opens the SPI port and GPIO lines named in cfg.
func NewADS1263(cfg config.Config) (Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}
	c, err := port.Connect(maxSpeed, spi.Mode1, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}
	rst := gpioreg.ByName(cfg.RSTPin)
	if rst == nil {
		port.Close()
		return nil, fmt.Errorf("unknown rst pin %q", cfg.RSTPin)
	}
	drdy := gpioreg.ByName(cfg.DRDYPin)
	if drdy == nil {
		port.Close()
		return nil, fmt.Errorf("unknown drdy pin %q", cfg.DRDYPin)
	}
	var cs gpio.PinOut
	if cfg.CSPin != "" {
		p := gpioreg.ByName(cfg.CSPin)
		if p == nil {
			port.Close()
			return nil, fmt.Errorf("unknown cs pin %q", cfg.CSPin)
		}
		cs = p
	}
	d, err := newADS1263(c, rst, drdy, cs, time.Duration(cfg.DRDYTimeoutMs)*time.Millisecond)
	if err != nil {
		port.Close()
		return nil, err
	}
	d.port = port
	return d, nil
}

func newADS1263(c spi.Conn, rst gpio.PinOut, drdy gpio.PinIn, cs gpio.PinOut, drdyTimeout time.Duration) (*ADS1263, error) {
	if err := drdy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ads1263: drdy: %w", err)
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("ads1263: cs: %w", err)
		}
	}
	return &ADS1263{
		c:           c,
		rst:         rst,
		drdy:        drdy,
		cs:          cs,
		mode:        ModeSingleEnded,
		drdyTimeout: drdyTimeout,
		sleep:       time.Sleep,
	}, nil
}

func (d *ADS1263) String() string {
	return fmt.Sprintf("ads1263{%s}", d.c)
}

// Init resets the chip, checks its ID and writes the base ADC1
// configuration for the given data rate.
func (d *ADS1263) Init(rate DataRate) error {
	if err := d.reset(); err != nil {
		return d.wrap(err)
	}
	id, err := d.readRegister(RegID)
	if err != nil {
		return d.wrap(err)
	}
	if id>>5 != ChipIDADS1263 {
		return d.wrap(fmt.Errorf("unexpected chip id %#02x", id))
	}
	if err := d.writeCommand(CmdStop1); err != nil {
		return d.wrap(err)
	}
	base := []struct {
		reg, val byte
	}{
		{RegMode2, mode2PGABypass | byte(rate)},
		{RegRefMux, refMuxVDDVSS},
		{RegMode0, mode0Delay35us},
		{RegMode1, mode1FIR},
	}
	for _, w := range base {
		if err := d.writeVerified(w.reg, w.val); err != nil {
			return d.wrap(err)
		}
	}
	log.Printf("ads1263: initialized id=%#02x rate=%#02x", id, byte(rate))
	return nil
}

func (d *ADS1263) WriteRegister(addr, value byte) error {
	if err := d.writeRegister(addr, value); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *ADS1263) WriteCommand(op byte) error {
	if err := d.writeCommand(op); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *ADS1263) SetMode(m Mode) error {
	switch m {
	case ModeSingleEnded, ModeDifferential:
		d.mode = m
		return nil
	default:
		return d.wrap(fmt.Errorf("invalid mode %d", m))
	}
}

func (d *ADS1263) SampleChannels(ctx context.Context, channels []int) ([]Sample, error) {
	out := make([]Sample, 0, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		mux, err := muxForChannel(d.mode, ch)
		if err != nil {
			return out, d.wrap(err)
		}
		if err := d.writeRegister(RegInpMux, mux); err != nil {
			return out, d.wrap(err)
		}
		d.sleep(muxSettle)
		if err := d.writeCommand(CmdStart1); err != nil {
			return out, d.wrap(err)
		}
		d.sleep(muxSettle)
		ready, err := d.waitReady(ctx)
		if err != nil {
			return out, err
		}
		if !ready {
			out = append(out, Sample{Channel: ch, Status: StatusTimeout})
			continue
		}
		code, status, err := d.readData()
		if err != nil {
			return out, d.wrap(err)
		}
		out = append(out, Sample{Channel: ch, Code: int32(code), Status: status})
	}
	return out, nil
}

// Close stops conversions, holds the chip in reset and releases the port.
// It is safe to call more than once.
func (d *ADS1263) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	if err := d.writeCommand(CmdStop1); err != nil {
		errs = append(errs, err)
	}
	if err := d.rst.Out(gpio.Low); err != nil {
		errs = append(errs, err)
	}
	if d.port != nil {
		if err := d.port.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *ADS1263) reset() error {
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.rst.Out(l); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		d.sleep(resetPulse)
	}
	return nil
}

func (d *ADS1263) writeVerified(reg, val byte) error {
	if err := d.writeRegister(reg, val); err != nil {
		return err
	}
	got, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	if got != val {
		return fmt.Errorf("register %#02x: wrote %#02x, read back %#02x", reg, val, got)
	}
	return nil
}

// waitReady polls DRDY until it goes low. It reports false when the
// configured timeout elapses first.
func (d *ADS1263) waitReady(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(d.drdyTimeout)
	for {
		if d.drdy.Read() == gpio.Low {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		d.sleep(drdyPoll)
	}
}

// readData issues RDATA1 until the status byte flags new ADC1 data, then
// checks the trailing checksum byte.
func (d *ADS1263) readData() (uint32, Status, error) {
	var w, r [7]byte
	w[0] = CmdRData1
	for i := 0; i < maxDataPolls; i++ {
		if err := d.tx(w[:], r[:]); err != nil {
			return 0, StatusOK, fmt.Errorf("read data: %w", err)
		}
		if r[1]&statusADC1New == 0 {
			continue
		}
		code := binary.BigEndian.Uint32(r[2:6])
		if checksum(code) != r[6] {
			return code, StatusChecksum, nil
		}
		return code, StatusOK, nil
	}
	return 0, StatusTimeout, nil
}

func (d *ADS1263) writeRegister(addr, value byte) error {
	w := []byte{CmdWReg | addr, 0x00, value}
	if err := d.tx(w, make([]byte, len(w))); err != nil {
		return fmt.Errorf("write register %#02x: %w", addr, err)
	}
	return nil
}

func (d *ADS1263) readRegister(addr byte) (byte, error) {
	w := []byte{CmdRReg | addr, 0x00, 0x00}
	r := make([]byte, len(w))
	if err := d.tx(w, r); err != nil {
		return 0, fmt.Errorf("read register %#02x: %w", addr, err)
	}
	return r[2], nil
}

func (d *ADS1263) writeCommand(op byte) error {
	if err := d.tx([]byte{op}, make([]byte, 1)); err != nil {
		return fmt.Errorf("command %#02x: %w", op, err)
	}
	return nil
}

func (d *ADS1263) tx(w, r []byte) (err error) {
	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("select: %w", err)
		}
		defer func() {
			if e := d.cs.Out(gpio.High); e != nil && err == nil {
				err = fmt.Errorf("deselect: %w", e)
			}
		}()
	}
	return d.c.Tx(w, r)
}

func (d *ADS1263) wrap(err error) error {
	return fmt.Errorf("ads1263: %w", err)
}
