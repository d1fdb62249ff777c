package output

import "github.com/ericogr/hx711-monitor/pkg/sensor"

// Output consumes one batch per sampling cycle. Publish must finish before the
// next cycle starts; Close releases whatever the output holds.
type Output interface {
	Publish(sensor.Batch) error
	Close() error
}

// helper constructors are in subpackages
