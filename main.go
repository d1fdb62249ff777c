package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericogr/hx711-monitor/pkg/config"
	"github.com/ericogr/hx711-monitor/pkg/logging"
	"github.com/ericogr/hx711-monitor/pkg/output"
	"github.com/ericogr/hx711-monitor/pkg/output/console"
	"github.com/ericogr/hx711-monitor/pkg/output/plot"
	"github.com/ericogr/hx711-monitor/pkg/scheduler"
	"github.com/ericogr/hx711-monitor/pkg/sensor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}

	opener, err := sensor.NewOpener(cfg)
	if err != nil {
		logger.Error("open sensors", "error", err)
		return 1
	}
	reg, err := sensor.BuildFromConfig(ctx, cfg, opener)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted during startup")
			return 0
		}
		logger.Error("init modules", "error", err)
		return 1
	}
	logger.Info(fmt.Sprintf("Initialized %d HX711 modules.", reg.Len()), "sensor_type", cfg.SensorType, "interval", cfg.Interval())

	out, err := initOutput(cfg, reg.Len(), stdout)
	if err != nil {
		_ = reg.Close()
		logger.Error("init output", "error", err)
		return 1
	}

	if err := scheduler.New(reg, out, cfg.Interval(), logger).Run(ctx); err != nil {
		logger.Error("sampling stopped", "error", err)
		return 1
	}
	return 0
}

func initOutput(cfg config.Config, channels int, stdout io.Writer) (output.Output, error) {
	switch cfg.Output {
	case config.OutputConsole:
		return console.NewConsoleWriter(stdout), nil
	case config.OutputPlot:
		var r plot.Renderer
		switch cfg.Plot.Renderer {
		case config.RendererTerminal:
			r = plot.NewTerminalRenderer(stdout, cfg.Plot.Height)
		case config.RendererPNG:
			r = plot.NewPNGRenderer(cfg.Plot.File)
		default:
			return nil, fmt.Errorf("unknown plot renderer %q", cfg.Plot.Renderer)
		}
		p, err := plot.New(channels, cfg.Plot.History, r)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown output %q", cfg.Output)
}
