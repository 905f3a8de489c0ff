// Package retry guards a metric collector whose source exists but keeps
// failing, typically a debugfs file read through sudo on a host where sudo
// needs a password. After Threshold failed ticks in a row the collector is
// no longer run every tick; it is tried again once per back-off period,
// and the period grows each time that retry fails too.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

var _ collectors.Collector = (*CircuitBreaker)(nil)

// ErrOpen marks a tick on which the collector was not run.
var ErrOpen = errors.New("circuit open")

// State is where a guarded collector stands.
type State int

const (
	// StateClosed runs the collector on every tick.
	StateClosed State = iota
	// StateOpen skips the collector until the back-off has elapsed.
	StateOpen
	// StateHalfOpen runs the collector once to decide between the other two.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config tunes a CircuitBreaker. Zero values take DefaultConfig.
type Config struct {
	// Threshold is the run of failed ticks that stops per-tick reads.
	Threshold int
	// Backoff is the wait before the first retry.
	Backoff time.Duration
	// MaxBackoff caps the wait.
	MaxBackoff time.Duration
	// Growth multiplies the wait after every failed retry.
	Growth float64

	Logger *slog.Logger
	Now    func() time.Time
}

// DefaultConfig is three failed ticks, then retries after 30s, 1m, 2m and
// so on up to 10m.
func DefaultConfig() Config {
	return Config{
		Threshold:  3,
		Backoff:    30 * time.Second,
		MaxBackoff: 10 * time.Minute,
		Growth:     2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Threshold <= 0 {
		c.Threshold = def.Threshold
	}
	if c.Backoff <= 0 {
		c.Backoff = def.Backoff
	}
	if c.MaxBackoff < c.Backoff {
		c.MaxBackoff = max(def.MaxBackoff, c.Backoff)
	}
	if c.Growth < 1 {
		c.Growth = def.Growth
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Stats describes a breaker at one instant.
type Stats struct {
	State State
	// Failures is the current run of failed ticks.
	Failures int
	// Skipped counts ticks not run since the last success.
	Skipped int
	// Backoff is the wait that applies the next time the circuit opens or
	// is currently in force.
	Backoff time.Duration

	TotalFailures  int
	TotalSuccesses int
	LastFailure    time.Time
	LastSuccess    time.Time
}

// CircuitBreaker wraps a collector so only its Update is rationed; readers
// keep using the wrapped collector's accessors directly.
type CircuitBreaker struct {
	collector collectors.Collector
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewCircuitBreaker guards c.
func NewCircuitBreaker(c collectors.Collector, cfg Config) *CircuitBreaker {
	cfg = cfg.withDefaults()
	return &CircuitBreaker{
		collector: c,
		cfg:       cfg,
		logger:    cfg.Logger.With("family", c.Family()),
		stats:     Stats{State: StateClosed, Backoff: cfg.Backoff},
	}
}

// Family reports the wrapped collector's family.
func (cb *CircuitBreaker) Family() collectors.Family {
	return cb.collector.Family()
}

// Update runs the collector when the circuit allows it. A skipped tick
// returns an error matching both collectors.ErrTransient and ErrOpen, so
// aggregates treat it like any other missed sample.
func (cb *CircuitBreaker) Update(ctx context.Context) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := cb.collector.Update(ctx)
	cb.settle(err)
	return err
}

// admit decides whether this tick may run the collector.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.stats.State != StateOpen {
		return nil
	}
	waited := cb.cfg.Now().Sub(cb.stats.LastFailure)
	if waited < cb.stats.Backoff {
		cb.stats.Skipped++
		return collectors.Transient(fmt.Errorf("%w after %d failures, next try in %s",
			ErrOpen, cb.stats.Failures, (cb.stats.Backoff - waited).Truncate(time.Second)))
	}
	cb.stats.State = StateHalfOpen
	cb.logger.Debug("retrying source")
	return nil
}

// settle records the outcome of a tick that ran.
func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.cfg.Now()
	if err == nil {
		if cb.stats.State == StateHalfOpen {
			cb.logger.Info("source recovered", "after_failures", cb.stats.Failures)
		}
		cb.stats.State = StateClosed
		cb.stats.Failures = 0
		cb.stats.Skipped = 0
		cb.stats.Backoff = cb.cfg.Backoff
		cb.stats.TotalSuccesses++
		cb.stats.LastSuccess = now
		return
	}

	cb.stats.Failures++
	cb.stats.TotalFailures++
	cb.stats.LastFailure = now

	switch {
	case cb.stats.State == StateHalfOpen:
		next := time.Duration(float64(cb.stats.Backoff) * cb.cfg.Growth)
		cb.stats.Backoff = min(next, cb.cfg.MaxBackoff)
		cb.stats.State = StateOpen
		cb.logger.Warn("source still failing", "failures", cb.stats.Failures,
			"next_try", cb.stats.Backoff, "error", err)
	case cb.stats.Failures >= cb.cfg.Threshold:
		cb.stats.State = StateOpen
		cb.logger.Warn("pausing source", "failures", cb.stats.Failures,
			"next_try", cb.stats.Backoff, "error", err)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats.State
}

// Stats returns a copy of the counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// Reset resumes per-tick reads immediately, keeping the totals.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.State = StateClosed
	cb.stats.Failures = 0
	cb.stats.Skipped = 0
	cb.stats.Backoff = cb.cfg.Backoff
	cb.logger.Info("breaker reset")
}
