// Package convert turns raw ADS1263 codes into voltages, resistances and
// temperatures. Everything here is a pure function of its inputs.
package convert

import "errors"

// ZeroCelsius is 0 °C in kelvin.
const ZeroCelsius = 273.15

var (
	// ErrNoReading is returned when the converter produced no valid code.
	ErrNoReading = errors.New("no reading")
	// ErrOutOfRange means the computed thermistor resistance is not
	// positive, which indicates a disconnected or saturated sensor.
	ErrOutOfRange = errors.New("resistance out of range")
	// ErrNonPhysical means the radiometric fourth power went negative.
	ErrNonPhysical = errors.New("non-physical result")
)
