package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

const (
	appName        = "boardtop"
	configFileName = "config.toml"
	legacyFileName = "config.yaml"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		RefreshRate:        Duration{1 * time.Second},
		ShowCPU:            true,
		ShowMemory:         true,
		ShowGPU:            true,
		ShowNetwork:        true,
		ShowNPU:            true,
		ShowRGA:            true,
		UsePlatformMetrics: true,
		HistoryLength:      history.DefaultCapacity,
		Platform: PlatformConfig{
			PrivilegedCommand: "sudo -n",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/boardtop/config.toml
//  2. ~/.config/boardtop/config.toml
//  3. config.yaml next to either of the above
//
// If no file exists, returns DefaultConfig() bound to the first path so a
// later Save creates it.
func Load() (Config, error) {
	paths := configSearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	for _, p := range paths {
		legacy := filepath.Join(filepath.Dir(p), legacyFileName)
		if _, err := os.Stat(legacy); err == nil {
			cfg, err := loadLegacy(legacy)
			if err != nil {
				return Config{}, err
			}
			cfg.path = paths[0]
			return cfg, nil
		}
	}

	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)
	if len(paths) > 0 {
		cfg.path = paths[0]
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. A missing
// file yields the defaults bound to path.
func LoadFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			cfg.path = path
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromReader decodes TOML over the defaults, so keys missing from the
// input keep their default values.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// loadLegacy imports a YAML config written by older releases.
func loadLegacy(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes c as TOML to its path, or to the default location when c was
// not loaded from a file. The write is atomic: a temporary file in the same
// directory is renamed over the target.
func (c Config) Save() error {
	path := c.path
	if path == "" {
		paths := configSearchPaths()
		if len(paths) == 0 {
			return errors.New("config: no config directory")
		}
		path = paths[0]
	}
	return c.SaveTo(path)
}

// SaveTo writes c as TOML to path.
func (c Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+configFileName+".*")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// normalize replaces out-of-range values with usable ones.
func normalize(cfg *Config) {
	if cfg.RefreshRate.Duration < MinRefresh {
		cfg.RefreshRate.Duration = MinRefresh
	}
	if cfg.HistoryLength < 1 {
		cfg.HistoryLength = history.DefaultCapacity
	}
	cfg.HistoryLength = min(cfg.HistoryLength, MaxHistoryLength)
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOARDTOP_REFRESH"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil && d.Duration >= MinRefresh {
			cfg.RefreshRate = d
		}
	}
	if v := os.Getenv("BOARDTOP_GPU_PATH"); v != "" {
		cfg.Platform.GPUPath = v
	}
	if v := os.Getenv("BOARDTOP_NPU_PATH"); v != "" {
		cfg.Platform.NPUPath = v
	}
	if v := os.Getenv("BOARDTOP_PLATFORM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePlatformMetrics = b
		}
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	if xdg != "" {
		paths = append(paths, filepath.Join(xdg, appName, configFileName))
	}

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	if home != "" {
		defaultXDG := filepath.Join(home, ".config")
		if xdg != defaultXDG {
			paths = append(paths, filepath.Join(defaultXDG, appName, configFileName))
		}
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config")
}
