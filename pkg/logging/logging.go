package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/ericogr/hx711-monitor/pkg/config"
)

// New builds a text or JSON slog logger writing to w at the configured level.
// The stdlib log package is pointed at the same writer.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	log.SetOutput(w)
	return slog.New(h), nil
}
