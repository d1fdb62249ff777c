package console

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ericogr/hx711-monitor/pkg/output"
	"github.com/ericogr/hx711-monitor/pkg/sensor"
)

const timestampLayout = "2006-01-02 15:04:05"

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

// NewConsoleWriter writes to w instead of stdout.
func NewConsoleWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

// Publish prints a timestamp header followed by one "Module N: W.WW g" line
// per reading, in a single write.
func (c *ConsoleOutput) Publish(b sensor.Batch) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s ---\n", b.Timestamp.Format(timestampLayout))
	for _, r := range b.Readings {
		fmt.Fprintf(&buf, "Module %d: %.2f g\n", r.Channel, r.Weight)
	}
	_, err := c.w.Write(buf.Bytes())
	return err
}

func (c *ConsoleOutput) Close() error { return nil }
