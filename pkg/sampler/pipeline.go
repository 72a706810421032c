package sampler

import (
	"errors"
	"fmt"

	"github.com/ericogr/ads1263-thermometry/pkg/convert"
	"github.com/ericogr/ads1263-thermometry/pkg/sensor"
)

// ErrNoReference is reported for a thermopile whose reference thermistor
// produced no temperature in the same cycle.
var ErrNoReference = errors.New("no reference temperature")

type Kind int

const (
	KindThermistorScaled Kind = iota
	KindThermistorDivider
	KindThermopile
)

var kindNames = map[Kind]string{
	KindThermistorScaled:  "thermistor-scaled",
	KindThermistorDivider: "thermistor-divider",
	KindThermopile:        "thermopile",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown channel kind %q", s)
}

// Channel binds an ADC input to its converter.
type Channel struct {
	Index      int
	Kind       Kind
	thermistor convert.Thermistor
	thermopile convert.Thermopile
	reference  int
}

// ThermistorChannel converts input index with th. kind tells the scaled
// series network from the divider one and is only used for reporting.
func ThermistorChannel(index int, kind Kind, th convert.Thermistor) Channel {
	return Channel{Index: index, Kind: kind, thermistor: th}
}

// ThermopileChannel converts input index with tp, using the temperature of
// thermistor channel reference from the same cycle as the body temperature.
func ThermopileChannel(index int, tp convert.Thermopile, reference int) Channel {
	return Channel{Index: index, Kind: KindThermopile, thermopile: tp, reference: reference}
}

// Reading is the outcome for one channel in one cycle. Err is set when the
// channel produced no temperature; Voltage and Resistance are still filled
// in when they were computed.
type Reading struct {
	Channel int
	Kind    Kind
	// Voltage is the signed differential voltage.
	Voltage    float64
	Resistance float64
	// Reference is the body temperature used by a thermopile conversion.
	Reference float64
	Celsius   float64
	Err       error
}

func (r Reading) Valid() bool { return r.Err == nil }

// Pipeline converts the samples of one cycle, channel by channel, in a
// fixed order.
type Pipeline struct {
	ref      float64
	channels []Channel
}

// NewPipeline checks that every channel has a converter, that indexes are
// unique and that every thermopile comes after the thermistor it takes its
// reference from.
func NewPipeline(ref float64, channels ...Channel) (*Pipeline, error) {
	if ref <= 0 {
		return nil, fmt.Errorf("reference voltage must be > 0, got %g", ref)
	}
	if len(channels) == 0 {
		return nil, errors.New("no channels")
	}
	seen := map[int]Kind{}
	for _, ch := range channels {
		switch ch.Kind {
		case KindThermistorScaled, KindThermistorDivider:
			if ch.thermistor.Network == nil {
				return nil, fmt.Errorf("channel %d: no thermistor network", ch.Index)
			}
		case KindThermopile:
			if ch.thermopile.Emissivity() <= 0 {
				return nil, fmt.Errorf("channel %d: thermopile not configured", ch.Index)
			}
		default:
			return nil, fmt.Errorf("channel %d: unknown kind %s", ch.Index, ch.Kind)
		}
		if _, dup := seen[ch.Index]; dup {
			return nil, fmt.Errorf("channel %d configured twice", ch.Index)
		}
		if ch.Kind == KindThermopile {
			k, ok := seen[ch.reference]
			if !ok {
				return nil, fmt.Errorf("thermopile channel %d: reference channel %d must be sampled before it", ch.Index, ch.reference)
			}
			if k == KindThermopile {
				return nil, fmt.Errorf("thermopile channel %d: reference channel %d is not a thermistor", ch.Index, ch.reference)
			}
		}
		seen[ch.Index] = ch.Kind
	}
	return &Pipeline{ref: ref, channels: append([]Channel(nil), channels...)}, nil
}

// Indexes returns the ADC inputs in sampling order.
func (p *Pipeline) Indexes() []int {
	out := make([]int, 0, len(p.channels))
	for _, ch := range p.channels {
		out = append(out, ch.Index)
	}
	return out
}

// Process converts one cycle of samples. The result has one Reading per
// configured channel, in pipeline order.
func (p *Pipeline) Process(samples []sensor.Sample) []Reading {
	byChannel := make(map[int]sensor.Sample, len(samples))
	for _, s := range samples {
		byChannel[s.Channel] = s
	}
	temps := make(map[int]float64, len(p.channels))
	out := make([]Reading, 0, len(p.channels))
	for _, ch := range p.channels {
		r := Reading{Channel: ch.Index, Kind: ch.Kind}
		s, ok := byChannel[ch.Index]
		if !ok {
			r.Err = convert.ErrNoReading
			out = append(out, r)
			continue
		}
		sig, err := convert.DecodeReading(s.Code, s.OK(), p.ref)
		if err != nil {
			r.Err = fmt.Errorf("%w: %s", err, s.Status)
			out = append(out, r)
			continue
		}
		r.Voltage = sig.Signed()

		switch ch.Kind {
		case KindThermopile:
			body, ok := temps[ch.reference]
			if !ok {
				r.Err = fmt.Errorf("%w: channel %d", ErrNoReference, ch.reference)
				break
			}
			r.Reference = body
			r.Celsius, r.Err = ch.thermopile.Convert(sig, body)
		default:
			tr, err := ch.thermistor.Convert(sig)
			r.Resistance = tr.Resistance
			if err != nil {
				r.Err = err
				break
			}
			r.Celsius = tr.Celsius
			temps[ch.Index] = tr.Celsius
		}
		if r.Err != nil {
			r.Celsius = 0
		}
		out = append(out, r)
	}
	return out
}
