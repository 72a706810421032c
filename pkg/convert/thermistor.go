package convert

import (
	"fmt"
	"math"
)

// Network recovers the thermistor resistance from the voltage measured
// across a resistor network.
type Network interface {
	Resistance(v float64) (float64, error)
}

// ScaledSeriesNetwork is a thermistor in series with Series ohms, read as
// Rs = 1000*(Supply/V) - Series.
type ScaledSeriesNetwork struct {
	Supply float64
	Series float64
}

func (n ScaledSeriesNetwork) Resistance(v float64) (float64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: %g V across series network", ErrOutOfRange, v)
	}
	return checkResistance(1000*(n.Supply/v) - n.Series)
}

// DividerNetwork is a thermistor on the measured leg of a divider whose
// other leg is Reference ohms: Rs = V/(Supply-V) * Reference.
type DividerNetwork struct {
	Supply    float64
	Reference float64
}

func (n DividerNetwork) Resistance(v float64) (float64, error) {
	if v >= n.Supply {
		return 0, fmt.Errorf("%w: %g V at or above %g V supply", ErrOutOfRange, v, n.Supply)
	}
	return checkResistance(v / (n.Supply - v) * n.Reference)
}

func checkResistance(rs float64) (float64, error) {
	if rs <= 0 || math.IsNaN(rs) || math.IsInf(rs, 0) {
		return 0, fmt.Errorf("%w: %g ohm", ErrOutOfRange, rs)
	}
	return rs, nil
}

// SteinhartHart holds the A, B and C coefficients of a thermistor.
type SteinhartHart struct {
	A, B, C float64
}

// Celsius returns 1/(A + B ln R + C ln³ R) - 273.15.
func (s SteinhartHart) Celsius(rs float64) (float64, error) {
	if _, err := checkResistance(rs); err != nil {
		return 0, err
	}
	lnR := math.Log(rs)
	t := 1/(s.A+s.B*lnR+s.C*lnR*lnR*lnR) - ZeroCelsius
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: %g ohm gives no finite temperature", ErrOutOfRange, rs)
	}
	return t, nil
}

// Thermistor pairs a network with its sensor coefficients.
type Thermistor struct {
	Network      Network
	Coefficients SteinhartHart
}

// ThermistorReading is the result of one thermistor conversion.
type ThermistorReading struct {
	Resistance float64
	Celsius    float64
}

// Convert uses the voltage magnitude; thermistor networks are read
// single-polarity.
func (t Thermistor) Convert(sig Signal) (ThermistorReading, error) {
	rs, err := t.Network.Resistance(sig.Voltage)
	if err != nil {
		return ThermistorReading{}, err
	}
	c, err := t.Coefficients.Celsius(rs)
	if err != nil {
		return ThermistorReading{Resistance: rs}, err
	}
	return ThermistorReading{Resistance: rs, Celsius: c}, nil
}

// Thermistor108 is the series thermistor on channel 0 (5 V supply,
// 41 kΩ series resistor).
func Thermistor108() Thermistor {
	return Thermistor{
		Network:      ScaledSeriesNetwork{Supply: 5.0, Series: 41000},
		Coefficients: SteinhartHart{A: 8.271111e-4, B: 2.088030e-4, C: 8.059200e-8},
	}
}

// Thermistor120 is the divider thermistor on channel 1, inside the IR120
// housing (3.3 V supply, 77.02 kΩ reference).
func Thermistor120() Thermistor {
	return Thermistor{
		Network:      DividerNetwork{Supply: 3.3, Reference: 77020},
		Coefficients: SteinhartHart{A: 9.555514e-4, B: 2.164256e-4, C: 1.437491e-7},
	}
}
