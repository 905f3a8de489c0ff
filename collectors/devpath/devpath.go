// Package devpath locates the kernel pseudo-filesystem directory that exposes
// a hardware counter, such as a devfreq device under /sys/class/devfreq.
package devpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

// DevfreqDir is the parent directory scanned when no fixed candidate exists.
const DevfreqDir = "/sys/class/devfreq"

// ErrNotFound is returned when neither a fixed candidate nor a keyword match
// exists. It wraps collectors.ErrUnavailable.
var ErrNotFound = fmt.Errorf("devpath: no matching device: %w", collectors.ErrUnavailable)

// Resolver describes how to find one family's device directory.
type Resolver struct {
	// Candidates are absolute paths tried in order.
	Candidates []string

	// ScanDir is searched when no candidate exists.
	ScanDir string

	// Keywords are case-sensitive substrings matched against entry names
	// in ScanDir.
	Keywords []string
}

// GPU is the resolver for Mali-class GPU devfreq devices on Rockchip boards.
var GPU = Resolver{
	Candidates: []string{
		"/sys/class/devfreq/fb000000.gpu",
		"/sys/class/devfreq/10000000.gpu",
		"/sys/class/devfreq/gpu",
	},
	ScanDir:  DevfreqDir,
	Keywords: []string{"gpu", "fb"},
}

// NPU is the resolver for RKNPU devfreq devices.
var NPU = Resolver{
	Candidates: []string{
		"/sys/class/devfreq/fdab0000.npu",
		"/sys/class/devfreq/10000000.npu",
		"/sys/class/devfreq/npu",
	},
	ScanDir:  DevfreqDir,
	Keywords: []string{"npu", "fdab"},
}

// Resolve returns the first candidate that exists, then the first directory
// entry of ScanDir (in name order) whose name contains a keyword. Entries
// must be directories or symlinks to directories, which is how sysfs class
// directories expose devices.
func (r Resolver) Resolve() (string, error) {
	for _, p := range r.Candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if r.ScanDir == "" || len(r.Keywords) == 0 {
		return "", ErrNotFound
	}

	entries, err := os.ReadDir(r.ScanDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("devpath: scan %s: %w", r.ScanDir, errors.Join(ErrNotFound, err))
	}

	for _, e := range entries {
		if !r.matches(e.Name()) {
			continue
		}
		p := filepath.Join(r.ScanDir, e.Name())
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		return p, nil
	}
	return "", ErrNotFound
}

func (r Resolver) matches(name string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
