package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SensorReal       = "real"
	SensorSimulation = "simulation"

	OutputConsole = "console"
	OutputPlot    = "plot"

	RendererTerminal = "terminal"
	RendererPNG      = "png"

	OrderMSB = "MSB"
	OrderLSB = "LSB"

	// EnvConfigPath names the config file when -config is not given.
	EnvConfigPath = "HX711_CONFIG"
	EnvSensorType = "HX711_SENSOR_TYPE"
	EnvLogLevel   = "HX711_LOG_LEVEL"
)

var ErrInvalidInterval = errors.New("invalid poll interval")

// ChannelConfig identifies one physical sensor by its BCM data and clock pins.
type ChannelConfig struct {
	DataPin  int `json:"data_pin" yaml:"data_pin"`
	ClockPin int `json:"clock_pin" yaml:"clock_pin"`
}

// ReadFormat selects the byte and bit order used to assemble a raw sample.
type ReadFormat struct {
	ByteOrder string `json:"byte_order" yaml:"byte_order"`
	BitOrder  string `json:"bit_order" yaml:"bit_order"`
}

type PlotConfig struct {
	Renderer string `json:"renderer" yaml:"renderer"`
	History  int    `json:"history" yaml:"history"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Height   int    `json:"height,omitempty" yaml:"height,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type Config struct {
	SensorType      string          `json:"sensor_type" yaml:"sensor_type"`
	Channels        []ChannelConfig `json:"channels" yaml:"channels"`
	ReferenceUnit   float64         `json:"reference_unit" yaml:"reference_unit"`
	ReadFormat      ReadFormat      `json:"read_format" yaml:"read_format"`
	Gain            int             `json:"gain" yaml:"gain"`
	TareSamples     int             `json:"tare_samples" yaml:"tare_samples"`
	ReadyTimeoutMs  int             `json:"ready_timeout_ms" yaml:"ready_timeout_ms"`
	IntervalSeconds float64         `json:"interval_seconds" yaml:"interval_seconds"`
	Output          string          `json:"output" yaml:"output"`
	Plot            PlotConfig      `json:"plot" yaml:"plot"`
	Log             LogConfig       `json:"log" yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		SensorType: SensorReal,
		Channels: []ChannelConfig{
			{DataPin: 5, ClockPin: 6},
			{DataPin: 26, ClockPin: 6},
			{DataPin: 20, ClockPin: 6},
			{DataPin: 16, ClockPin: 6},
		},
		ReferenceUnit:   114,
		ReadFormat:      ReadFormat{ByteOrder: OrderMSB, BitOrder: OrderMSB},
		Gain:            128,
		TareSamples:     1,
		ReadyTimeoutMs:  1000,
		IntervalSeconds: 1.0,
		Output:          OutputConsole,
		Plot:            PlotConfig{Renderer: RendererTerminal, History: 100, File: "hx711.png", Height: 15},
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Interval returns the poll interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// ReadyTimeout is how long a driver waits for a conversion before giving up.
func (c Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMs) * time.Millisecond
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults, an optional JSON or YAML file,
// flags and an optional positional poll interval in seconds.
// Flags override values present in the file; the positional interval wins over both.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("hx711-monitor", flag.ContinueOnError)
	cfgPath := fs.String("config", os.Getenv(EnvConfigPath), "Path to JSON or YAML config file")
	flagSensorType := fs.String("sensor-type", os.Getenv(EnvSensorType), "sensor type: real|simulation")
	flagChannels := fs.String("channels", "", "Comma-separated data:clock BCM pin pairs e.g. 5:6,26:6")
	flagRefUnit := fs.Float64("reference-unit", math.NaN(), "Calibration reference unit (raw units per gram)")
	flagGain := fs.Int("gain", -1, "HX711 gain: 128, 64 or 32")
	flagTare := fs.Int("tare-samples", -1, "Raw samples averaged for the zero offset")
	flagOutput := fs.String("output", "", "Output: console|plot")
	flagRenderer := fs.String("plot-renderer", "", "Plot renderer: terminal|png")
	flagPlotFile := fs.String("plot-file", "", "PNG file written by the png renderer")
	flagHistory := fs.Int("history", -1, "Samples kept per channel by the plot output")
	flagLogLevel := fs.String("log-level", os.Getenv(EnvLogLevel), "Log level: debug|info|warn|error")
	flagLogFormat := fs.String("log-format", "", "Log format: text|json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		if err := LoadFile(*cfgPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagChannels != "" {
		chs, err := parseChannels(*flagChannels)
		if err != nil {
			return cfg, err
		}
		cfg.Channels = chs
	}
	if !math.IsNaN(*flagRefUnit) {
		cfg.ReferenceUnit = *flagRefUnit
	}
	if *flagGain != -1 {
		cfg.Gain = *flagGain
	}
	if *flagTare != -1 {
		cfg.TareSamples = *flagTare
	}
	if *flagOutput != "" {
		cfg.Output = strings.ToLower(*flagOutput)
	}
	if *flagRenderer != "" {
		cfg.Plot.Renderer = strings.ToLower(*flagRenderer)
	}
	if *flagPlotFile != "" {
		cfg.Plot.File = *flagPlotFile
	}
	if *flagHistory != -1 {
		cfg.Plot.History = *flagHistory
	}
	if *flagLogLevel != "" {
		cfg.Log.Level = *flagLogLevel
	}
	if *flagLogFormat != "" {
		cfg.Log.Format = *flagLogFormat
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		v, err := parseInterval(rest[0])
		if err != nil {
			return cfg, err
		}
		cfg.IntervalSeconds = v
	default:
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[1:], " "))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes path into cfg. Files ending in .yaml or .yml are read as
// YAML, anything else as JSON. Fields missing from the file keep their values.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.SensorType {
	case SensorReal, SensorSimulation:
	default:
		return fmt.Errorf("unknown sensor type %q", c.SensorType)
	}
	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	seen := make(map[int]int, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.DataPin < 0 || ch.ClockPin < 0 {
			return fmt.Errorf("module %d: pins must be >= 0", i+1)
		}
		if ch.DataPin == ch.ClockPin {
			return fmt.Errorf("module %d: data and clock pin are both %d", i+1, ch.DataPin)
		}
		if prev, ok := seen[ch.DataPin]; ok {
			return fmt.Errorf("module %d: data pin %d already used by module %d", i+1, ch.DataPin, prev)
		}
		seen[ch.DataPin] = i + 1
	}
	for i, ch := range c.Channels {
		if mod, ok := seen[ch.ClockPin]; ok {
			return fmt.Errorf("module %d: clock pin %d is the data pin of module %d", i+1, ch.ClockPin, mod)
		}
	}
	if c.ReferenceUnit == 0 || math.IsNaN(c.ReferenceUnit) || math.IsInf(c.ReferenceUnit, 0) {
		return errors.New("reference-unit must be a finite non-zero number")
	}
	if err := validateOrder("byte_order", c.ReadFormat.ByteOrder); err != nil {
		return err
	}
	if err := validateOrder("bit_order", c.ReadFormat.BitOrder); err != nil {
		return err
	}
	switch c.Gain {
	case 128, 64, 32:
	default:
		return fmt.Errorf("gain must be 128, 64 or 32, got %d", c.Gain)
	}
	if c.TareSamples < 1 {
		return errors.New("tare-samples must be >= 1")
	}
	if c.ReadyTimeoutMs <= 0 {
		return errors.New("ready_timeout_ms must be > 0")
	}
	if !(c.IntervalSeconds > 0) || math.IsInf(c.IntervalSeconds, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, c.IntervalSeconds)
	}
	switch c.Output {
	case OutputConsole:
	case OutputPlot:
		switch c.Plot.Renderer {
		case RendererTerminal, RendererPNG:
		default:
			return fmt.Errorf("unknown plot renderer %q", c.Plot.Renderer)
		}
		if c.Plot.History < 1 {
			return errors.New("history must be >= 1")
		}
		if c.Plot.Renderer == RendererPNG && c.Plot.File == "" {
			return errors.New("plot-file is required by the png renderer")
		}
	default:
		return fmt.Errorf("unknown output %q", c.Output)
	}
	return nil
}

func validateOrder(name, v string) error {
	switch v {
	case OrderMSB, OrderLSB:
		return nil
	}
	return fmt.Errorf("%s must be %s or %s, got %q", name, OrderMSB, OrderLSB, v)
}

func parseInterval(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidInterval, s, err)
	}
	return v, nil
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

// parseChannels parses "data:clock" pairs such as "5:6,26:6".
func parseChannels(s string) ([]ChannelConfig, error) {
	parts := parseCSV(s)
	out := make([]ChannelConfig, 0, len(parts))
	for _, p := range parts {
		kv := strings.SplitN(p, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid channel '%s': want data:clock", p)
		}
		data, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid data pin in '%s': %w", p, err)
		}
		clock, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid clock pin in '%s': %w", p, err)
		}
		out = append(out, ChannelConfig{DataPin: data, ClockPin: clock})
	}
	return out, nil
}
