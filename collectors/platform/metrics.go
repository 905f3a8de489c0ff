// Package platform implements the board-specific metrics tier for Rockchip
// style embedded Linux: processor counters from procfs, GPU and NPU load
// from devfreq, and RGA activity from debugfs read with elevated privilege.
// Each family is detected independently at construction.
package platform

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/devpath"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
	"gitlab.com/tinyland/lab/boardtop/collectors/retry"
)

// Options configures New.
type Options struct {
	// HistoryLength is the per-stream sample capacity. Zero selects
	// history.DefaultCapacity.
	HistoryLength int

	// GPUPath and NPUPath bypass device discovery when set. The path is
	// used as given, without checking that it exists.
	GPUPath string
	NPUPath string

	// GPUFreqUnit and NPUFreqUnit override the devfreq cur_freq units.
	GPUFreqUnit FreqUnit
	NPUFreqUnit FreqUnit

	// PrivilegedCommand elevates debugfs reads. Empty selects
	// DefaultPrivilegedCommand. Ignored when Runner is set.
	PrivilegedCommand string
	Runner            Runner

	// DisableRGA leaves the RGA family out.
	DisableRGA bool

	// Breaker configures back-off for sources read through the runner.
	// Zero fields take retry.DefaultConfig values.
	Breaker retry.Config

	Logger *slog.Logger
}

// discovery holds the host lookup steps, replaceable in tests.
type discovery struct {
	cpu        func(historyLen int) (*CPU, error)
	resolveGPU func() (string, error)
	resolveNPU func() (string, error)
}

var hostDiscovery = discovery{
	cpu:        NewCPU,
	resolveGPU: devpath.GPU.Resolve,
	resolveNPU: devpath.NPU.Resolve,
}

// Metrics is the platform aggregate.
type Metrics struct {
	cpu *CPU
	gpu *Devfreq
	npu *Devfreq
	rga *RGA

	breakers map[collectors.Family]*retry.CircuitBreaker
	registry *collectors.Registry
	logger   *slog.Logger
}

// New detects every platform family. Absent families are logged and left
// out; New itself never fails.
func New(opts Options) *Metrics {
	return newMetrics(opts, hostDiscovery)
}

func newMetrics(opts Options, p discovery) *Metrics {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("tier", "platform")

	runner := opts.Runner
	if runner == nil {
		runner = NewCommandRunner(opts.PrivilegedCommand)
	}

	m := &Metrics{
		breakers: make(map[collectors.Family]*retry.CircuitBreaker),
		registry: collectors.NewRegistry(logger),
		logger:   logger,
	}

	if cpu, err := p.cpu(opts.HistoryLength); err != nil {
		logMissing(logger, collectors.FamilyCPU, err)
	} else {
		m.cpu = cpu
		m.registry.Register(cpu)
		logger.Info("platform source found", "family", collectors.FamilyCPU, "cores", cpu.CoreCount())
	}

	if path, err := pathOrResolve(opts.GPUPath, p.resolveGPU); err != nil {
		logMissing(logger, collectors.FamilyGPU, err)
	} else {
		m.gpu = NewDevfreq(collectors.FamilyGPU, path, opts.GPUFreqUnit, opts.HistoryLength)
		m.registry.Register(m.gpu)
		logger.Info("platform source found", "family", collectors.FamilyGPU, "path", path)
	}

	if path, err := pathOrResolve(opts.NPUPath, p.resolveNPU); err != nil {
		logMissing(logger, collectors.FamilyNPU, err)
	} else {
		m.npu = NewDevfreq(collectors.FamilyNPU, path, opts.NPUFreqUnit, opts.HistoryLength)
		if _, err := m.npu.readFile(filepath.Join(path, "load")); errors.Is(err, fs.ErrNotExist) {
			m.npu.loadFallback = rknpuLoad(runner)
			m.registry.Register(m.guard(m.npu, opts.Breaker))
		} else {
			m.registry.Register(m.npu)
		}
		logger.Info("platform source found", "family", collectors.FamilyNPU, "path", path)
	}

	if !opts.DisableRGA {
		m.rga = NewRGA(runner, opts.HistoryLength)
		m.registry.Register(m.guard(m.rga, opts.Breaker))
	}

	return m
}

// guard wraps c in a circuit breaker and remembers it for inspection.
func (m *Metrics) guard(c collectors.Collector, cfg retry.Config) collectors.Collector {
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}
	cb := retry.NewCircuitBreaker(c, cfg)
	m.breakers[c.Family()] = cb
	return cb
}

func pathOrResolve(override string, resolve func() (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}
	return resolve()
}

func logMissing(logger *slog.Logger, f collectors.Family, err error) {
	if errors.Is(err, collectors.ErrUnavailable) {
		logger.Debug("platform source unavailable", "family", f, "error", err)
		return
	}
	logger.Warn("platform source failed", "family", f, "error", err)
}

// Update runs one pass over every present collector. Transient failures are
// logged and swallowed; the first hard failure is returned after the pass.
func (m *Metrics) Update(ctx context.Context) error {
	return m.registry.Update(ctx)
}

// Capabilities returns the present families, always ordered cpu, gpu, npu,
// rga.
func (m *Metrics) Capabilities() []collectors.Family {
	return m.registry.Families()
}

// Has reports whether family f is present.
func (m *Metrics) Has(f collectors.Family) bool {
	_, ok := m.registry.Get(f)
	return ok
}

// Usage returns the utilization reader for f.
func (m *Metrics) Usage(f collectors.Family) (collectors.UsageReader, bool) {
	switch {
	case f == collectors.FamilyCPU && m.cpu != nil:
		return m.cpu, true
	case f == collectors.FamilyGPU && m.gpu != nil:
		return m.gpu, true
	case f == collectors.FamilyNPU && m.npu != nil:
		return m.npu, true
	case f == collectors.FamilyRGA && m.rga != nil:
		return m.rga, true
	}
	return nil, false
}

// CPU returns the processor collector, or nil when absent.
func (m *Metrics) CPU() *CPU { return m.cpu }

// GPU returns the GPU devfreq collector, or nil when absent.
func (m *Metrics) GPU() *Devfreq { return m.gpu }

// NPU returns the NPU devfreq collector, or nil when absent.
func (m *Metrics) NPU() *Devfreq { return m.npu }

// RGA returns the RGA collector, or nil when disabled.
func (m *Metrics) RGA() *RGA { return m.rga }

// Breaker returns the circuit breaker guarding family f, or nil.
func (m *Metrics) Breaker(f collectors.Family) *retry.CircuitBreaker {
	return m.breakers[f]
}

func capacity(n int) int {
	if n <= 0 {
		return history.DefaultCapacity
	}
	return n
}
