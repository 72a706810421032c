package convert

import (
	"fmt"
	"math"
)

// StefanBoltzmann is σ in W·m⁻²·K⁻⁴ as used by the thermopile calibration.
const StefanBoltzmann = 5.67e-8

// ThermopileCalibration maps the body-temperature compensated millivolt
// signal to radiant energy E = X*V² + Y*V + Z.
type ThermopileCalibration struct {
	X, Y, Z float64
	Sigma   float64
	// DriftBase is raised to (T_ref - 25) to compensate the sensor's
	// sensitivity drift with its own temperature.
	DriftBase float64
}

// IR120Calibration is the factory calibration of the IR120 thermopile.
func IR120Calibration() ThermopileCalibration {
	return ThermopileCalibration{
		X:         1.956170e-05,
		Y:         3.316540e-01,
		Z:         -1.288665e+00,
		Sigma:     StefanBoltzmann,
		DriftBase: 1.0004,
	}
}

// Thermopile converts thermopile voltage to surface temperature.
type Thermopile struct {
	cal        ThermopileCalibration
	emissivity float64
	background float64
}

// NewThermopile returns a converter for a surface of the given emissivity.
// background is the radiant background in °C; pass NaN to use the
// reference temperature of every conversion instead.
func NewThermopile(cal ThermopileCalibration, emissivity, background float64) (Thermopile, error) {
	if !(emissivity > 0 && emissivity <= 1) {
		return Thermopile{}, fmt.Errorf("emissivity must be in (0,1], got %g", emissivity)
	}
	if cal.Sigma <= 0 {
		return Thermopile{}, fmt.Errorf("sigma must be > 0, got %g", cal.Sigma)
	}
	return Thermopile{cal: cal, emissivity: emissivity, background: background}, nil
}

func (t Thermopile) Emissivity() float64 { return t.emissivity }

// Convert returns the surface temperature in °C. reference is the
// temperature of the thermopile body in °C, measured by its thermistor.
func (t Thermopile) Convert(sig Signal, reference float64) (float64, error) {
	mv := sig.Voltage * 1000 * sig.Sign
	mv *= math.Pow(t.cal.DriftBase, reference-25.0)
	e := t.cal.X*mv*mv + t.cal.Y*mv + t.cal.Z

	bg := t.background
	if math.IsNaN(bg) {
		bg = reference
	}
	bg4 := math.Pow(bg+ZeroCelsius, 4)

	t4 := e/t.cal.Sigma + bg4
	if t.emissivity < 1.0 {
		t4 = (t4 - bg4*(1-t.emissivity)) / t.emissivity
	}
	if t4 < 0 || math.IsNaN(t4) || math.IsInf(t4, 0) {
		return 0, fmt.Errorf("%w: T^4 = %g", ErrNonPhysical, t4)
	}
	return math.Pow(t4, 0.25) - ZeroCelsius, nil
}
