package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// FreqUnit is the unit a devfreq cur_freq file reports in.
type FreqUnit int

const (
	// UnitDefault selects the family's native unit: Hz for GPU, kHz for NPU.
	UnitDefault FreqUnit = iota
	UnitHz
	UnitKHz
	UnitMHz
)

// ParseFreqUnit parses "hz", "khz" or "mhz" (case-insensitive). The empty
// string yields UnitDefault.
func ParseFreqUnit(s string) (FreqUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return UnitDefault, nil
	case "hz":
		return UnitHz, nil
	case "khz":
		return UnitKHz, nil
	case "mhz":
		return UnitMHz, nil
	default:
		return UnitDefault, fmt.Errorf("platform: unknown frequency unit %q", s)
	}
}

func (u FreqUnit) String() string {
	switch u {
	case UnitHz:
		return "hz"
	case UnitKHz:
		return "khz"
	case UnitMHz:
		return "mhz"
	default:
		return "default"
	}
}

// divisor converts a reading in u to MHz.
func (u FreqUnit) divisor() float64 {
	switch u {
	case UnitHz:
		return 1_000_000
	case UnitKHz:
		return 1_000
	default:
		return 1
	}
}

// nativeUnit is the cur_freq unit each devfreq family reports.
func nativeUnit(f collectors.Family) FreqUnit {
	if f == collectors.FamilyNPU {
		return UnitKHz
	}
	return UnitHz
}

// Devfreq reads load and current frequency from a devfreq device directory.
// It serves both the GPU and the NPU.
type Devfreq struct {
	family collectors.Family
	path   string
	unit   FreqUnit
	load   *history.Stream[float64]
	freq   *history.Stream[float64] // MHz

	// loadFallback supplies the load when the device has no load file.
	loadFallback func(ctx context.Context) (float64, error)

	readFile func(path string) ([]byte, error)
}

// NewDevfreq creates a collector for family reading from the device
// directory path. UnitDefault selects the family's native unit.
func NewDevfreq(family collectors.Family, path string, unit FreqUnit, historyLen int) *Devfreq {
	if unit == UnitDefault {
		unit = nativeUnit(family)
	}
	n := capacity(historyLen)
	return &Devfreq{
		family:   family,
		path:     path,
		unit:     unit,
		load:     history.WithCapacity(0.0, n),
		freq:     history.WithCapacity(0.0, n),
		readFile: os.ReadFile,
	}
}

// Family implements collectors.Collector.
func (d *Devfreq) Family() collectors.Family { return d.family }

// Update reads <path>/load and <path>/cur_freq. A missing file leaves its
// stream unchanged; unreadable or unparseable content is transient.
func (d *Devfreq) Update(ctx context.Context) error {
	var errs []error

	switch raw, err := d.readFile(filepath.Join(d.path, "load")); {
	case err == nil:
		load, perr := parseLoad(string(raw))
		if perr != nil {
			errs = append(errs, perr)
		} else {
			d.load.Push(load)
		}
	case errors.Is(err, fs.ErrNotExist) && d.loadFallback != nil:
		load, ferr := d.loadFallback(ctx)
		if ferr != nil {
			errs = append(errs, ferr)
		} else {
			d.load.Push(load)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		errs = append(errs, fmt.Errorf("platform: %s load: %w", d.family, err))
	}

	switch raw, err := d.readFile(filepath.Join(d.path, "cur_freq")); {
	case err == nil:
		v, perr := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
		if perr != nil {
			errs = append(errs, &collectors.ParseError{
				Source: filepath.Join(d.path, "cur_freq"),
				Line:   strings.TrimSpace(string(raw)),
				Reason: "not an integer",
			})
		} else {
			d.freq.Push(float64(v) / d.unit.divisor())
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		errs = append(errs, fmt.Errorf("platform: %s cur_freq: %w", d.family, err))
	}

	return collectors.Transient(errors.Join(errs...))
}

// parseLoad accepts a bare integer ("42") or a load@frequency composite
// ("0@300000000Hz"). The result is clamped to 100.
func parseLoad(s string) (float64, error) {
	s = strings.TrimSpace(s)
	head, _, _ := strings.Cut(s, "@")
	v, err := strconv.ParseUint(strings.TrimSpace(head), 10, 64)
	if err != nil {
		return 0, &collectors.ParseError{Source: "devfreq load", Line: s, Reason: "no leading integer"}
	}
	return float64(min(v, 100)), nil
}

// Path returns the device directory.
func (d *Devfreq) Path() string { return d.path }

// Unit returns the unit cur_freq is interpreted in.
func (d *Devfreq) Unit() FreqUnit { return d.unit }

// Usage returns the latest load percentage.
func (d *Devfreq) Usage() float64 { return d.load.Current() }

// UsageHistory returns the retained load samples, oldest first.
func (d *Devfreq) UsageHistory() []float64 { return d.load.History() }

// FrequencyMHz returns the latest device frequency.
func (d *Devfreq) FrequencyMHz() float64 { return d.freq.Current() }

// FrequencyHistory returns the retained frequency samples in MHz.
func (d *Devfreq) FrequencyHistory() []float64 { return d.freq.History() }
