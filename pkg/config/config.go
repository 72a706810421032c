package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Channel kinds accepted by -channels.
const (
	KindThermistorScaled  = "thermistor-scaled"
	KindThermistorDivider = "thermistor-divider"
	KindThermopile        = "thermopile"
)

// Sensor types accepted by -sensor-type.
const (
	SensorReal       = "real"
	SensorSimulation = "simulation"
)

type ChannelConfig struct {
	Channel int
	Kind    string
}

type Config struct {
	SPIPort       string
	RSTPin        string
	DRDYPin       string
	CSPin         string
	SensorType    string
	DataRate      float64
	RefVoltage    float64
	DRDYTimeoutMs int
	// Surface selects the emissivity preset. Emissivity, when not NaN,
	// overrides the preset.
	Surface    string
	Emissivity float64
	// BackgroundTemp is the thermopile background in °C. NaN means the
	// reference thermistor temperature is used.
	BackgroundTemp float64
	Channels       []ChannelConfig
	IntervalMs     int
	Cycles         int
}

func DefaultConfig() Config {
	return Config{
		SPIPort:        "",
		RSTPin:         "GPIO18",
		DRDYPin:        "GPIO17",
		CSPin:          "GPIO22",
		SensorType:     SensorReal,
		DataRate:       400,
		RefVoltage:     2.5,
		DRDYTimeoutMs:  1000,
		Surface:        "asphalt",
		Emissivity:     math.NaN(),
		BackgroundTemp: math.NaN(),
		Channels: []ChannelConfig{
			{Channel: 0, Kind: KindThermistorScaled},
			{Channel: 1, Kind: KindThermistorDivider},
			{Channel: 2, Kind: KindThermopile},
		},
		IntervalMs: 0,
		Cycles:     0,
	}
}

// Load builds the configuration from command line arguments. Flags override
// the defaults; anything not given keeps its default value.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("ads1263-thermometry", flag.ContinueOnError)
	flagSPIPort := fs.String("spi-port", "", "SPI port name (empty selects the first available)")
	flagRSTPin := fs.String("rst-pin", "", "GPIO driving the ADS1263 RESET line")
	flagDRDYPin := fs.String("drdy-pin", "", "GPIO connected to the ADS1263 DRDY line")
	flagCSPin := fs.String("cs-pin", "", "GPIO used as software chip select ('none' to rely on the SPI CS)")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagDataRate := fs.Float64("data-rate", math.NaN(), "ADC1 data rate (SPS)")
	flagRef := fs.Float64("ref", math.NaN(), "ADC reference voltage (V)")
	flagDRDYTimeout := fs.Int("drdy-timeout-ms", -1, "How long to wait for a conversion before skipping the channel")
	flagSurface := fs.String("surface", "", "Surface name used for the emissivity preset")
	flagEmissivity := fs.Float64("emissivity", math.NaN(), "Explicit emissivity in (0,1], overrides -surface")
	flagBackground := fs.Float64("background-temp", math.NaN(), "Thermopile background temperature in °C (default: reference thermistor)")
	flagChannels := fs.String("channels", "", "Ordered channel layout e.g. 0=thermistor-scaled,1=thermistor-divider,2=thermopile")
	flagInterval := fs.Int("interval-ms", -1, "Delay between cycles in ms")
	flagCycles := fs.Int("cycles", -1, "Number of cycles to run (0 runs until interrupted)")

	cfg := DefaultConfig()
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *flagSPIPort != "" {
		cfg.SPIPort = *flagSPIPort
	}
	if *flagRSTPin != "" {
		cfg.RSTPin = *flagRSTPin
	}
	if *flagDRDYPin != "" {
		cfg.DRDYPin = *flagDRDYPin
	}
	if *flagCSPin != "" {
		cfg.CSPin = *flagCSPin
		if strings.EqualFold(cfg.CSPin, "none") {
			cfg.CSPin = ""
		}
	}
	if *flagSensorType != "" {
		cfg.SensorType = strings.ToLower(*flagSensorType)
	}
	if !math.IsNaN(*flagDataRate) {
		cfg.DataRate = *flagDataRate
	}
	if !math.IsNaN(*flagRef) {
		cfg.RefVoltage = *flagRef
	}
	if *flagDRDYTimeout != -1 {
		cfg.DRDYTimeoutMs = *flagDRDYTimeout
	}
	if *flagSurface != "" {
		cfg.Surface = *flagSurface
	}
	if !math.IsNaN(*flagEmissivity) {
		cfg.Emissivity = *flagEmissivity
	}
	if !math.IsNaN(*flagBackground) {
		cfg.BackgroundTemp = *flagBackground
	}
	if *flagChannels != "" {
		chs, err := parseChannels(*flagChannels)
		if err != nil {
			return cfg, err
		}
		cfg.Channels = chs
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagCycles != -1 {
		cfg.Cycles = *flagCycles
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.SensorType {
	case SensorReal, SensorSimulation:
	default:
		return fmt.Errorf("sensor-type must be %s or %s, got %q", SensorReal, SensorSimulation, c.SensorType)
	}
	if c.RefVoltage <= 0 {
		return errors.New("ref must be > 0")
	}
	if c.DataRate <= 0 {
		return errors.New("data-rate must be > 0")
	}
	if c.DRDYTimeoutMs <= 0 {
		return errors.New("drdy-timeout-ms must be > 0")
	}
	if !math.IsNaN(c.Emissivity) && (c.Emissivity <= 0 || c.Emissivity > 1) {
		return fmt.Errorf("emissivity must be in (0,1], got %g", c.Emissivity)
	}
	if c.IntervalMs < 0 {
		return errors.New("interval-ms must be >= 0")
	}
	if c.Cycles < 0 {
		return errors.New("cycles must be >= 0")
	}
	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	return nil
}

// ChannelIndexes returns the configured channel numbers in sampling order.
func (c Config) ChannelIndexes() []int {
	out := make([]int, 0, len(c.Channels))
	for _, ch := range c.Channels {
		out = append(out, ch.Channel)
	}
	return out
}

// parseChannels parses an ordered "index=kind" list. Order is significant:
// channels are sampled in the order given.
func parseChannels(s string) ([]ChannelConfig, error) {
	parts := parseCSV(s)
	out := make([]ChannelConfig, 0, len(parts))
	seen := map[int]bool{}
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid channel entry '%s': want index=kind", p)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid channel '%s': %w", kv[0], err)
		}
		if seen[idx] {
			return nil, fmt.Errorf("channel %d listed twice", idx)
		}
		seen[idx] = true
		kind := strings.ToLower(strings.TrimSpace(kv[1]))
		switch kind {
		case KindThermistorScaled, KindThermistorDivider, KindThermopile:
		default:
			return nil, fmt.Errorf("channel %d: unknown kind '%s'", idx, kind)
		}
		out = append(out, ChannelConfig{Channel: idx, Kind: kind})
	}
	return out, nil
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
