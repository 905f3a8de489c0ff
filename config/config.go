// Package config holds the boardtop settings: which metric families are
// shown, how often they refresh, and how platform devices are located.
// A Config is a value; edits produce a new value through With.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/platform"
)

// RefreshPresets are the intervals the options menu cycles through.
var RefreshPresets = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
}

// MinRefresh is the fastest refresh rate accepted from a file or flag.
const MinRefresh = 100 * time.Millisecond

// MaxHistoryLength bounds history_length. Every stream allocates twice its
// capacity up front.
const MaxHistoryLength = 10_000

// Config is the root configuration.
type Config struct {
	// RefreshRate is the tick interval. Integers are read as milliseconds.
	RefreshRate Duration `toml:"refresh_rate" yaml:"refresh_rate"`

	ShowCPU     bool `toml:"show_cpu" yaml:"show_cpu"`
	ShowMemory  bool `toml:"show_memory" yaml:"show_memory"`
	ShowGPU     bool `toml:"show_gpu" yaml:"show_gpu"`
	ShowNetwork bool `toml:"show_network" yaml:"show_network"`
	ShowNPU     bool `toml:"show_npu" yaml:"show_npu"`
	ShowRGA     bool `toml:"show_rga" yaml:"show_rga"`

	// SelectedNetworkInterface is the interface charted in the network
	// panel. Empty means none selected.
	SelectedNetworkInterface string `toml:"selected_network_interface,omitempty" yaml:"selected_network_interface"`

	// UsePlatformMetrics enables the board-specific collectors.
	UsePlatformMetrics bool `toml:"use_platform_metrics" yaml:"use_platform_metrics"`

	// HistoryLength is the number of samples kept per chart.
	HistoryLength int `toml:"history_length" yaml:"history_length"`

	Platform PlatformConfig `toml:"platform" yaml:"platform"`
	Log      LogConfig      `toml:"log" yaml:"log"`

	// path is the file this config was loaded from and saves to.
	path string
}

// PlatformConfig locates and interprets platform devices.
type PlatformConfig struct {
	// GPUPath and NPUPath override devfreq discovery.
	GPUPath string `toml:"gpu_path,omitempty" yaml:"gpu_path"`
	NPUPath string `toml:"npu_path,omitempty" yaml:"npu_path"`

	// GPUFreqUnit and NPUFreqUnit are "hz", "khz" or "mhz". Empty selects
	// the device's usual unit.
	GPUFreqUnit string `toml:"gpu_freq_unit,omitempty" yaml:"gpu_freq_unit"`
	NPUFreqUnit string `toml:"npu_freq_unit,omitempty" yaml:"npu_freq_unit"`

	// PrivilegedCommand elevates debugfs reads, e.g. "sudo -n".
	PrivilegedCommand string `toml:"privileged_command" yaml:"privileged_command"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty disables logging.
	File string `toml:"file,omitempty" yaml:"file"`
}

// With returns a copy of c with fn applied.
func (c Config) With(fn func(*Config)) Config {
	fn(&c)
	return c
}

// Path returns the file c was loaded from, or "" for a default config.
func (c Config) Path() string { return c.path }

// Shown reports whether the panel for f is enabled.
func (c Config) Shown(f collectors.Family) bool {
	switch f {
	case collectors.FamilyCPU:
		return c.ShowCPU
	case collectors.FamilyMemory:
		return c.ShowMemory
	case collectors.FamilyGPU:
		return c.ShowGPU
	case collectors.FamilyNetwork:
		return c.ShowNetwork
	case collectors.FamilyNPU:
		return c.ShowNPU
	case collectors.FamilyRGA:
		return c.ShowRGA
	}
	return false
}

// SetShown enables or disables the panel for f.
func (c *Config) SetShown(f collectors.Family, on bool) {
	switch f {
	case collectors.FamilyCPU:
		c.ShowCPU = on
	case collectors.FamilyMemory:
		c.ShowMemory = on
	case collectors.FamilyGPU:
		c.ShowGPU = on
	case collectors.FamilyNetwork:
		c.ShowNetwork = on
	case collectors.FamilyNPU:
		c.ShowNPU = on
	case collectors.FamilyRGA:
		c.ShowRGA = on
	}
}

// NextRefresh returns the preset after the current refresh rate, wrapping
// around. A rate that is not a preset advances to the first larger preset.
func (c Config) NextRefresh() time.Duration {
	cur := c.RefreshRate.Duration
	for _, p := range RefreshPresets {
		if p > cur {
			return p
		}
	}
	return RefreshPresets[0]
}

// PrevRefresh returns the preset before the current refresh rate, wrapping
// around.
func (c Config) PrevRefresh() time.Duration {
	cur := c.RefreshRate.Duration
	for i := len(RefreshPresets) - 1; i >= 0; i-- {
		if RefreshPresets[i] < cur {
			return RefreshPresets[i]
		}
	}
	return RefreshPresets[len(RefreshPresets)-1]
}

// PlatformOptions translates the platform section for platform.New.
func (c Config) PlatformOptions() (platform.Options, error) {
	gpuUnit, err := platform.ParseFreqUnit(c.Platform.GPUFreqUnit)
	if err != nil {
		return platform.Options{}, fmt.Errorf("config: gpu_freq_unit: %w", err)
	}
	npuUnit, err := platform.ParseFreqUnit(c.Platform.NPUFreqUnit)
	if err != nil {
		return platform.Options{}, fmt.Errorf("config: npu_freq_unit: %w", err)
	}
	return platform.Options{
		HistoryLength:     c.HistoryLength,
		GPUPath:           c.Platform.GPUPath,
		NPUPath:           c.Platform.NPUPath,
		GPUFreqUnit:       gpuUnit,
		NPUFreqUnit:       npuUnit,
		PrivilegedCommand: c.Platform.PrivilegedCommand,
	}, nil
}

// LogLevel parses Log.Level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.RefreshRate.Duration < MinRefresh {
		return fmt.Errorf("config: refresh_rate %s is below %s", c.RefreshRate, MinRefresh)
	}
	if c.HistoryLength < 1 || c.HistoryLength > MaxHistoryLength {
		return fmt.Errorf("config: history_length must be between 1 and %d, got %d", MaxHistoryLength, c.HistoryLength)
	}
	if _, err := c.PlatformOptions(); err != nil {
		return err
	}
	return nil
}

// Duration wraps time.Duration for TOML and YAML. It decodes Go duration
// strings ("1s", "500ms") and bare integers as milliseconds, and encodes
// as a duration string.
type Duration struct {
	time.Duration
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		d.Duration = time.Duration(x) * time.Millisecond
		return nil
	case string:
		return d.UnmarshalText([]byte(x))
	default:
		return fmt.Errorf("config: duration must be a string or milliseconds, got %T", v)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: line %d: duration must be a scalar", n.Line)
	}
	return d.UnmarshalText([]byte(n.Value))
}

// UnmarshalText parses a duration string or a millisecond count.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(ms) * time.Millisecond
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
