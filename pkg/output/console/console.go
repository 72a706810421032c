package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ericogr/ads1263-thermometry/pkg/output"
	"github.com/ericogr/ads1263-thermometry/pkg/sampler"
)

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

func NewConsoleWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(cycle sampler.Cycle) error {
	ts := cycle.Timestamp.Format(time.RFC3339)
	for _, r := range cycle.Readings {
		var err error
		switch {
		case !r.Valid():
			_, err = fmt.Fprintf(c.w, "%s channel=%d kind=%s skipped: %v\n", ts, r.Channel, r.Kind, r.Err)
		case r.Kind == sampler.KindThermopile:
			_, err = fmt.Fprintf(c.w, "%s channel=%d kind=%s voltage=%.6f reference=%.6f temperature=%.6f\n", ts, r.Channel, r.Kind, r.Voltage, r.Reference, r.Celsius)
		default:
			_, err = fmt.Fprintf(c.w, "%s channel=%d kind=%s voltage=%.6f resistance=%.6f temperature=%.6f\n", ts, r.Channel, r.Kind, r.Voltage, r.Resistance, r.Celsius)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
