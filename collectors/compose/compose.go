// Package compose merges the platform and generic metrics tiers into one
// view. For each metric family the source is chosen once, at construction:
// the platform tier when it has the family, else the generic tier, else the
// family is absent.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/generic"
	"gitlab.com/tinyland/lab/boardtop/collectors/platform"
)

// Source tags where a family's data comes from.
type Source int

const (
	SourceAbsent Source = iota
	SourceGeneric
	SourcePlatform
)

func (s Source) String() string {
	switch s {
	case SourceAbsent:
		return "absent"
	case SourceGeneric:
		return "generic"
	case SourcePlatform:
		return "platform"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Aggregate is one metrics tier.
type Aggregate interface {
	Update(ctx context.Context) error
	Has(f collectors.Family) bool
	Usage(f collectors.Family) (collectors.UsageReader, bool)
}

// Options configures New.
type Options struct {
	// UsePlatform enables the platform tier.
	UsePlatform bool
	Platform    platform.Options
	Generic     generic.Options
	Logger      *slog.Logger
}

// Compositor owns both tiers and routes each family to one of them.
type Compositor struct {
	gen  Aggregate
	plat Aggregate // nil when disabled

	genMetrics  *generic.Metrics
	platMetrics *platform.Metrics

	sources []Source // indexed by collectors.Family
	logger  *slog.Logger
}

// New builds the generic tier, and the platform tier when enabled, then
// fixes the source of every family.
func New(ctx context.Context, opts Options) *Compositor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Generic.Logger == nil {
		opts.Generic.Logger = logger
	}
	if opts.Platform.Logger == nil {
		opts.Platform.Logger = logger
	}

	g := generic.New(ctx, opts.Generic)
	var p *platform.Metrics
	var plat Aggregate
	if opts.UsePlatform {
		p = platform.New(opts.Platform)
		plat = p
	}

	c := NewFromTiers(g, plat, logger)
	c.genMetrics = g
	c.platMetrics = p
	return c
}

// NewFromTiers composes already-built tiers. plat may be nil.
func NewFromTiers(gen, plat Aggregate, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Compositor{
		gen:     gen,
		plat:    plat,
		sources: make([]Source, len(collectors.Families())),
		logger:  logger,
	}
	for _, f := range collectors.Families() {
		switch {
		case plat != nil && plat.Has(f):
			c.sources[f] = SourcePlatform
		case gen != nil && gen.Has(f):
			c.sources[f] = SourceGeneric
		}
		logger.Debug("metric source selected", "family", f, "source", c.sources[f])
	}
	return c
}

// Update refreshes both tiers. A failure in one never stops the other; the
// returned error joins both.
func (c *Compositor) Update(ctx context.Context) error {
	var errs []error
	if c.gen != nil {
		if err := c.gen.Update(ctx); err != nil {
			errs = append(errs, fmt.Errorf("generic: %w", err))
		}
	}
	if c.plat != nil {
		if err := c.plat.Update(ctx); err != nil {
			errs = append(errs, fmt.Errorf("platform: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Source returns where family f is read from.
func (c *Compositor) Source(f collectors.Family) Source {
	if f < 0 || int(f) >= len(c.sources) {
		return SourceAbsent
	}
	return c.sources[f]
}

// Sources returns the source of every family, indexed by collectors.Family.
func (c *Compositor) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Usage returns the utilization reader serving f from its selected tier.
func (c *Compositor) Usage(f collectors.Family) (collectors.UsageReader, bool) {
	switch c.Source(f) {
	case SourcePlatform:
		return c.plat.Usage(f)
	case SourceGeneric:
		return c.gen.Usage(f)
	default:
		return nil, false
	}
}

// Capabilities returns every family with a source, in display order.
func (c *Compositor) Capabilities() []collectors.Family {
	var out []collectors.Family
	for _, f := range collectors.Families() {
		if c.sources[f] != SourceAbsent {
			out = append(out, f)
		}
	}
	return out
}

// Generic returns the generic tier built by New, or nil.
func (c *Compositor) Generic() *generic.Metrics { return c.genMetrics }

// Platform returns the platform tier built by New, or nil when disabled.
func (c *Compositor) Platform() *platform.Metrics { return c.platMetrics }

// Close releases tier resources.
func (c *Compositor) Close() error {
	if c.genMetrics != nil {
		return c.genMetrics.Close()
	}
	return nil
}
