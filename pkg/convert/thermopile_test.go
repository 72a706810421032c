package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIR120(t *testing.T, emissivity, background float64) Thermopile {
	t.Helper()
	tp, err := NewThermopile(IR120Calibration(), emissivity, background)
	require.NoError(t, err)
	return tp
}

func TestThermopileKnownValues(t *testing.T) {
	tests := []struct {
		name       string
		sig        Signal
		ref        float64
		emissivity float64
		background float64
		want       float64
	}{
		{"blackbody", Signal{0.0005, 1}, 25, 1.0, math.NaN(), 24.813028133308705},
		{"asphalt", Signal{0.0005, 1}, 25, 0.93, math.NaN(), 24.798940731125242},
		{"negative polarity", Signal{0.005, -1}, 20, 0.93, math.NaN(), 19.444544751949763},
		{"explicit background", Signal{0.01, 1}, 30, 0.93, 10.0, 10.424353425242941},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newIR120(t, tt.emissivity, tt.background).Convert(tt.sig, tt.ref)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestThermopileBlackbodyIsPlainStefanBoltzmann(t *testing.T) {
	cal := IR120Calibration()
	sig := Signal{Voltage: 0.0021, Sign: 1}
	const ref = 18.0

	mv := sig.Voltage * 1000 * math.Pow(cal.DriftBase, ref-25)
	e := cal.X*mv*mv + cal.Y*mv + cal.Z
	want := math.Pow(e/cal.Sigma+math.Pow(ref+ZeroCelsius, 4), 0.25) - ZeroCelsius

	implicit, err := newIR120(t, 1.0, math.NaN()).Convert(sig, ref)
	require.NoError(t, err)
	explicit, err := newIR120(t, 1.0, ref).Convert(sig, ref)
	require.NoError(t, err)

	assert.InDelta(t, want, implicit, 1e-12)
	assert.Equal(t, implicit, explicit)
}

func TestThermopileNonPhysical(t *testing.T) {
	_, err := newIR120(t, 0.001, math.NaN()).Convert(Signal{Voltage: 0, Sign: 1}, 25)
	assert.ErrorIs(t, err, ErrNonPhysical)

	_, err = newIR120(t, 1.0, math.NaN()).Convert(Signal{Voltage: 2.0, Sign: -1}, 25)
	assert.ErrorIs(t, err, ErrNonPhysical)
}

func TestNewThermopileRejectsEmissivity(t *testing.T) {
	for _, e := range []float64{0, -0.5, 1.01, math.NaN()} {
		_, err := NewThermopile(IR120Calibration(), e, math.NaN())
		assert.Error(t, err, "emissivity %g", e)
	}
}
