package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/ads1263-thermometry/pkg/calibrate"
	"github.com/ericogr/ads1263-thermometry/pkg/config"
	"github.com/ericogr/ads1263-thermometry/pkg/convert"
	"github.com/ericogr/ads1263-thermometry/pkg/output"
	"github.com/ericogr/ads1263-thermometry/pkg/output/console"
	"github.com/ericogr/ads1263-thermometry/pkg/sampler"
	"github.com/ericogr/ads1263-thermometry/pkg/sensor"
)

func main() {
	fmt.Println("starting...")

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	rate, err := sensor.ParseDataRate(cfg.DataRate)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pipeline, err := buildPipeline(cfg, convert.DefaultEmissivity())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	dev, err := newDevice(cfg)
	if err != nil {
		log.Fatalf("device: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := console.NewConsole()
	loop := sampler.NewLoop(dev, pipeline, out)
	loop.Interval = time.Duration(cfg.IntervalMs) * time.Millisecond
	loop.Cycles = cfg.Cycles

	if err := run(ctx, dev, calibrate.New(calibrate.ProfileFor(rate)), loop, out); err != nil {
		log.Printf("fatal: %v", err)
		stop()
		os.Exit(1)
	}
	log.Println("program end")
}

// run calibrates the device, selects differential mode and polls until the
// loop stops. The device and output are closed on every path.
func run(ctx context.Context, dev sensor.Device, seq *calibrate.Sequencer, loop *sampler.Loop, out output.Output) error {
	defer func() {
		if err := dev.Close(); err != nil {
			log.Printf("device close: %v", err)
		}
		if err := out.Close(); err != nil {
			log.Printf("output close: %v", err)
		}
	}()

	if err := seq.Run(ctx, dev); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			log.Println("interrupted during calibration")
			return nil
		}
		return fmt.Errorf("calibrate: %w", err)
	}
	if err := dev.SetMode(sensor.ModeDifferential); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	err := loop.Run(ctx)
	if ctx.Err() != nil {
		log.Println("interrupted, shutting down")
	}
	return err
}

func newDevice(cfg config.Config) (sensor.Device, error) {
	switch cfg.SensorType {
	case config.SensorSimulation:
		log.Println("using simulated ADS1263")
		return sensor.NewFakeDevice(cfg.RefVoltage), nil
	case config.SensorReal:
		return sensor.NewADS1263(cfg)
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
	}
}

// resolveEmissivity prefers an explicit -emissivity over the surface preset.
func resolveEmissivity(cfg config.Config, table *convert.EmissivityTable) float64 {
	if !math.IsNaN(cfg.Emissivity) {
		return cfg.Emissivity
	}
	if !table.Has(cfg.Surface) {
		log.Printf("unknown surface %q, using emissivity %.2f (known: %v)", cfg.Surface, convert.DefaultEmissivityValue, table.Surfaces())
	}
	e := table.Lookup(cfg.Surface)
	log.Printf("surface %q emissivity %.2f", cfg.Surface, e)
	return e
}

// buildPipeline maps the configured channel layout onto converters. A
// thermopile takes its body temperature from the closest divider thermistor
// listed before it, or failing that the closest thermistor of any kind.
func buildPipeline(cfg config.Config, table *convert.EmissivityTable) (*sampler.Pipeline, error) {
	tp, err := convert.NewThermopile(convert.IR120Calibration(), resolveEmissivity(cfg, table), cfg.BackgroundTemp)
	if err != nil {
		return nil, err
	}
	log.Printf("channels %v, thermopile emissivity %.2f", cfg.ChannelIndexes(), tp.Emissivity())
	channels := make([]sampler.Channel, 0, len(cfg.Channels))
	lastDivider, lastThermistor := -1, -1
	for _, c := range cfg.Channels {
		kind, err := sampler.ParseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c.Channel, err)
		}
		switch kind {
		case sampler.KindThermistorScaled:
			channels = append(channels, sampler.ThermistorChannel(c.Channel, kind, convert.Thermistor108()))
			lastThermistor = c.Channel
		case sampler.KindThermistorDivider:
			channels = append(channels, sampler.ThermistorChannel(c.Channel, kind, convert.Thermistor120()))
			lastDivider, lastThermistor = c.Channel, c.Channel
		case sampler.KindThermopile:
			ref := lastDivider
			if ref < 0 {
				ref = lastThermistor
			}
			if ref < 0 {
				return nil, fmt.Errorf("thermopile channel %d: no thermistor sampled before it", c.Channel)
			}
			channels = append(channels, sampler.ThermopileChannel(c.Channel, tp, ref))
		}
	}
	return sampler.NewPipeline(cfg.RefVoltage, channels...)
}
