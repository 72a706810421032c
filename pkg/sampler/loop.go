package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ericogr/ads1263-thermometry/pkg/sensor"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Cycle is everything acquired in one pass over the channels.
type Cycle struct {
	Seq       uint64
	Timestamp time.Time
	Readings  []Reading
}

// Valid returns the readings that produced a temperature.
func (c Cycle) Valid() []Reading {
	out := make([]Reading, 0, len(c.Readings))
	for _, r := range c.Readings {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// Faults returns the readings that were skipped.
func (c Cycle) Faults() []Reading {
	var out []Reading
	for _, r := range c.Readings {
		if !r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

type Publisher interface {
	Publish(Cycle) error
}

// Loop polls the device and publishes one Cycle per pass. Channel faults
// never stop it; device and publish errors do.
type Loop struct {
	// Interval is the pause between cycles. Zero polls back to back.
	Interval time.Duration
	// Cycles limits the number of cycles. Zero runs until ctx is done.
	Cycles int

	dev      sensor.Device
	pipeline *Pipeline
	pub      Publisher
	now      func() time.Time
	seq      uint64
	state    atomic.Int32
}

func NewLoop(dev sensor.Device, p *Pipeline, pub Publisher) *Loop {
	return &Loop{dev: dev, pipeline: p, pub: pub, now: time.Now}
}

func (l *Loop) State() State { return State(l.state.Load()) }

// RunCycle samples every channel once and converts the result.
func (l *Loop) RunCycle(ctx context.Context) (Cycle, error) {
	samples, err := l.dev.SampleChannels(ctx, l.pipeline.Indexes())
	if err != nil {
		return Cycle{}, fmt.Errorf("sample: %w", err)
	}
	l.seq++
	return Cycle{
		Seq:       l.seq,
		Timestamp: l.now(),
		Readings:  l.pipeline.Process(samples),
	}, nil
}

// Run polls until ctx is cancelled, the cycle limit is reached or the device
// fails. Cancellation is a clean stop and returns nil; a cycle interrupted by
// cancellation is dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.state.Store(int32(StateRunning))
	defer l.state.Store(int32(StateTerminated))

	for n := 0; l.Cycles == 0 || n < l.Cycles; n++ {
		if ctx.Err() != nil {
			return nil
		}
		c, err := l.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
		if err := l.pub.Publish(c); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		if l.Interval > 0 {
			t := time.NewTimer(l.Interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	}
	return nil
}
