package convert

const (
	negativeScale = 1 << 31
	positiveScale = 1<<31 - 1
)

// Signal is a decoded differential voltage. Voltage is the magnitude and is
// never negative; Sign is +1 or -1.
type Signal struct {
	Voltage float64
	Sign    float64
}

// Signed returns the voltage with its polarity applied.
func (s Signal) Signed() float64 { return s.Voltage * s.Sign }

// Decode converts a 32-bit ADC1 code into a signal at reference ref.
//
// Codes with the top bit set are taken as the unsigned word shifted out by
// the chip, so the magnitude is ref*2 - word*ref/2^31.
func Decode(code int32, ref float64) Signal {
	if code < 0 {
		word := float64(uint32(code))
		return Signal{Voltage: ref*2 - word*ref/negativeScale, Sign: -1}
	}
	return Signal{Voltage: float64(code) * ref / positiveScale, Sign: 1}
}

// DecodeReading is Decode for a code that may be missing. valid is false
// when the converter timed out or the data failed its checksum.
func DecodeReading(code int32, valid bool, ref float64) (Signal, error) {
	if !valid {
		return Signal{}, ErrNoReading
	}
	return Decode(code, ref), nil
}
