package sensor

import (
	"context"
	"time"
)

// Poll reads every channel once, strictly one after another and in order,
// since channels may share a clock line. The first failed read aborts the
// cycle; no partial batch is returned.
func Poll(ctx context.Context, channels []Channel, now time.Time) (Batch, error) {
	out := make([]Reading, 0, len(channels))
	for i, ch := range channels {
		raw, err := ch.Driver.ReadRaw(ctx)
		if err != nil {
			return Batch{}, &ReadError{Channel: i + 1, Err: err}
		}
		out = append(out, Reading{Channel: i + 1, Raw: raw, Weight: ch.Weight(raw), Timestamp: now})
	}
	return Batch{Timestamp: now, Readings: out}, nil
}
