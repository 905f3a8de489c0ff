// Package collectors defines the contract shared by every metrics source in
// boardtop: the metric families, the Collector interface each source
// implements, the error taxonomy, and the Registry an aggregate uses to run
// one update pass over its sources.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Family identifies one metric family shown on the dashboard.
type Family int

const (
	FamilyCPU Family = iota
	FamilyMemory
	FamilyNetwork
	FamilyGPU
	FamilyNPU
	FamilyRGA
	familyCount // sentinel for iteration
)

// familyNames maps each Family to its configuration and log name.
var familyNames = [familyCount]string{
	FamilyCPU:     "cpu",
	FamilyMemory:  "memory",
	FamilyNetwork: "network",
	FamilyGPU:     "gpu",
	FamilyNPU:     "npu",
	FamilyRGA:     "rga",
}

// familyTitles maps each Family to its display label.
var familyTitles = [familyCount]string{
	FamilyCPU:     "CPU",
	FamilyMemory:  "Memory",
	FamilyNetwork: "Network",
	FamilyGPU:     "GPU",
	FamilyNPU:     "NPU",
	FamilyRGA:     "RGA",
}

// String returns the lowercase family name.
func (f Family) String() string {
	if f < 0 || f >= familyCount {
		return fmt.Sprintf("family(%d)", int(f))
	}
	return familyNames[f]
}

// Title returns the display label, e.g. "CPU".
func (f Family) Title() string {
	if f < 0 || f >= familyCount {
		return f.String()
	}
	return familyTitles[f]
}

// Families returns every metric family in display order.
func Families() []Family {
	out := make([]Family, familyCount)
	for i := range out {
		out[i] = Family(i)
	}
	return out
}

// Collector is implemented by every metrics source. A collector owns its
// sample streams exclusively; Update reads the raw OS source once and pushes
// the derived values. Callers never run Update concurrently with itself or
// with the collector's read accessors.
type Collector interface {
	// Family reports which metric family this collector feeds.
	Family() Family

	// Update samples the source once. A failure wrapping ErrTransient means
	// this tick was skipped and every stream kept its previous value.
	Update(ctx context.Context) error
}

// UsageReader is the common read surface of every collector that tracks a
// utilization percentage.
type UsageReader interface {
	Usage() float64
	UsageHistory() []float64
}

// Registry holds the collectors of one aggregate in registration order.
type Registry struct {
	collectors []Collector
	logger     *slog.Logger
}

// NewRegistry creates an empty registry. If logger is nil, a discard logger
// is used.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		collectors: make([]Collector, 0, familyCount),
		logger:     logger,
	}
}

// Register adds a collector. A collector for the same family replaces the
// existing one in place.
func (r *Registry) Register(c Collector) {
	for i, existing := range r.collectors {
		if existing.Family() == c.Family() {
			r.collectors[i] = c
			return
		}
	}
	r.collectors = append(r.collectors, c)
}

// Get returns the collector registered for f.
func (r *Registry) Get(f Family) (Collector, bool) {
	for _, c := range r.collectors {
		if c.Family() == f {
			return c, true
		}
	}
	return nil, false
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Family {
	out := make([]Family, len(r.collectors))
	for i, c := range r.collectors {
		out[i] = c.Family()
	}
	return out
}

// Len returns the number of registered collectors.
func (r *Registry) Len() int {
	return len(r.collectors)
}

// Update runs one pass over every registered collector. Transient failures
// are logged and skipped. Every collector is updated even after a hard
// failure; the first hard failure is returned once the pass completes.
func (r *Registry) Update(ctx context.Context) error {
	var first error
	for _, c := range r.collectors {
		err := c.Update(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrTransient) {
			r.logger.Debug("collector skipped tick", "family", c.Family(), "error", err)
			continue
		}
		r.logger.Warn("collector update failed", "family", c.Family(), "error", err)
		if first == nil {
			first = fmt.Errorf("%s: %w", c.Family(), err)
		}
	}
	return first
}
