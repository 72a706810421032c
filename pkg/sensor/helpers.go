package sensor

import "fmt"

var dataRates = map[float64]DataRate{
	2.5:   Rate2d5SPS,
	5:     Rate5SPS,
	10:    Rate10SPS,
	16.6:  Rate16d6SPS,
	20:    Rate20SPS,
	50:    Rate50SPS,
	60:    Rate60SPS,
	100:   Rate100SPS,
	400:   Rate400SPS,
	1200:  Rate1200SPS,
	2400:  Rate2400SPS,
	4800:  Rate4800SPS,
	7200:  Rate7200SPS,
	14400: Rate14400SPS,
	19200: Rate19200SPS,
	38400: Rate38400SPS,
}

// ParseDataRate maps a samples-per-second figure to its MODE2 code.
func ParseDataRate(sps float64) (DataRate, error) {
	if r, ok := dataRates[sps]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unsupported data rate %g SPS", sps)
}

// muxForChannel returns the INPMUX value selecting channel ch.
// Differential pairs are AIN0/AIN1, AIN2/AIN3 and so on; single-ended
// channels are measured against AINCOM.
func muxForChannel(mode Mode, ch int) (byte, error) {
	switch mode {
	case ModeDifferential:
		if ch < 0 || ch > 4 {
			return 0, fmt.Errorf("invalid differential channel %d", ch)
		}
		return byte(2*ch)<<4 | byte(2*ch+1), nil
	case ModeSingleEnded:
		if ch < 0 || ch > 9 {
			return 0, fmt.Errorf("invalid channel %d", ch)
		}
		return byte(ch)<<4 | inpMuxAINCOM, nil
	default:
		return 0, fmt.Errorf("invalid mode %d", mode)
	}
}

// checksum computes the ADC1 data checksum: the byte sum of the code plus
// 0x9B, truncated to 8 bits.
func checksum(code uint32) byte {
	sum := uint32(0x9B)
	for v := code; v != 0; v >>= 8 {
		sum += v & 0xFF
	}
	return byte(sum)
}
