// Package calibrate brings the converter up into a known state and runs its
// self offset calibration. It must run once, before any reading is used.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ericogr/ads1263-thermometry/pkg/sensor"
)

var (
	// ErrInit wraps a device initialization failure. It is fatal.
	ErrInit = errors.New("device initialization failed")
	// ErrAlreadyCalibrated is returned by a second Run.
	ErrAlreadyCalibrated = errors.New("device already calibrated")
)

// RegisterWrite is a single register assignment of a profile.
type RegisterWrite struct {
	Addr  byte
	Value byte
}

// Profile is the filter, chop, PGA, data rate and reference setup applied
// before calibration.
type Profile struct {
	Rate   sensor.DataRate
	Writes []RegisterWrite
}

// DefaultProfile enables the FIR filter and chop mode, bypasses the PGA at
// 400 SPS and selects the internal 2.5 V reference.
func DefaultProfile() Profile {
	return ProfileFor(sensor.Rate400SPS)
}

// ProfileFor is DefaultProfile at another data rate.
func ProfileFor(rate sensor.DataRate) Profile {
	return Profile{
		Rate: rate,
		Writes: []RegisterWrite{
			{sensor.RegMode1, 0x80},
			{sensor.RegMode0, 0x10},
			{sensor.RegMode2, 0x80 | byte(rate)},
			{sensor.RegPower, 0x13},
			{sensor.RegRefMux, 0x00},
		},
	}
}

type Sequencer struct {
	Profile Profile
	// PreCalibration is the pause between configuration and SFOCAL1.
	PreCalibration time.Duration
	// Settle is how long the chip needs to finish SFOCAL1. The 2 s default
	// comes from bench timing, not from the data sheet.
	Settle time.Duration

	done bool
}

func New(p Profile) *Sequencer {
	return &Sequencer{
		Profile:        p,
		PreCalibration: 500 * time.Millisecond,
		Settle:         2 * time.Second,
	}
}

// Run initializes dev, applies the profile and performs a self offset
// calibration with the inputs floating, then restores the default input
// multiplexer. Errors from Init are wrapped with ErrInit.
func (s *Sequencer) Run(ctx context.Context, dev sensor.Device) error {
	if s.done {
		return ErrAlreadyCalibrated
	}
	if err := dev.Init(s.Profile.Rate); err != nil {
		return fmt.Errorf("%w: %w", ErrInit, err)
	}
	s.done = true

	for _, w := range s.Profile.Writes {
		if err := dev.WriteRegister(w.Addr, w.Value); err != nil {
			return fmt.Errorf("profile: %w", err)
		}
	}
	if err := sleep(ctx, s.PreCalibration); err != nil {
		return err
	}

	log.Printf("calibrate: self offset calibration, inputs floating for %s", s.Settle)
	if err := dev.WriteRegister(sensor.RegInpMux, sensor.InpMuxFloating); err != nil {
		return fmt.Errorf("float inputs: %w", err)
	}
	if err := dev.WriteCommand(sensor.CmdSFOCal1); err != nil {
		return fmt.Errorf("sfocal: %w", err)
	}
	if err := sleep(ctx, s.Settle); err != nil {
		return err
	}
	if err := dev.WriteRegister(sensor.RegInpMux, sensor.InpMuxDefault); err != nil {
		return fmt.Errorf("restore inputs: %w", err)
	}
	log.Printf("calibrate: done")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
