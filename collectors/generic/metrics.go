// Package generic implements the cross-platform metrics tier: processor,
// memory and network through gopsutil, and an optional NVIDIA GPU through
// NVML. It is always available and serves as the fallback for any family
// the platform tier cannot provide.
package generic

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// Options configures New.
type Options struct {
	// HistoryLength is the per-stream sample capacity. Zero selects
	// history.DefaultCapacity.
	HistoryLength int

	// DisableGPU skips NVML probing.
	DisableGPU bool

	Logger *slog.Logger
}

// Metrics is the generic aggregate. CPU, memory and network are always
// present; the GPU is present only when NVML found a device.
type Metrics struct {
	cpu     *CPU
	memory  *Memory
	network *Network
	gpu     *GPU

	registry *collectors.Registry
	logger   *slog.Logger
}

// New builds the generic aggregate and looks for a GPU.
func New(ctx context.Context, opts Options) *Metrics {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &Metrics{
		cpu:     NewCPU(ctx, opts.HistoryLength),
		memory:  NewMemory(opts.HistoryLength),
		network: NewNetwork(opts.HistoryLength),
		logger:  logger,
	}

	if !opts.DisableGPU {
		gpu, err := NewGPU(opts.HistoryLength)
		switch {
		case err == nil:
			m.gpu = gpu
			logger.Info("gpu detected", "name", gpu.Name())
		case errors.Is(err, collectors.ErrUnavailable):
			logger.Debug("gpu unavailable", "error", err)
		default:
			logger.Warn("gpu init failed", "error", err)
		}
	}

	m.registry = newRegistry(logger, m.cpu, m.memory, m.network, m.gpu)
	return m
}

// newRegistry registers each non-nil collector.
func newRegistry(logger *slog.Logger, cpu *CPU, memory *Memory, network *Network, gpu *GPU) *collectors.Registry {
	reg := collectors.NewRegistry(logger.With("tier", "generic"))
	if cpu != nil {
		reg.Register(cpu)
	}
	if memory != nil {
		reg.Register(memory)
	}
	if network != nil {
		reg.Register(network)
	}
	if gpu != nil {
		reg.Register(gpu)
	}
	return reg
}

// Update runs one pass over every present collector. Transient failures are
// logged and swallowed; the first hard failure is returned after the pass.
func (m *Metrics) Update(ctx context.Context) error {
	return m.registry.Update(ctx)
}

// Capabilities returns the present families in display order.
func (m *Metrics) Capabilities() []collectors.Family {
	return m.registry.Families()
}

// Has reports whether family f is present.
func (m *Metrics) Has(f collectors.Family) bool {
	_, ok := m.registry.Get(f)
	return ok
}

// Usage returns the utilization reader for f. Network has no single
// utilization figure and is not served here.
func (m *Metrics) Usage(f collectors.Family) (collectors.UsageReader, bool) {
	switch f {
	case collectors.FamilyCPU:
		return m.cpu, true
	case collectors.FamilyMemory:
		return m.memory, true
	case collectors.FamilyGPU:
		if m.gpu != nil {
			return m.gpu, true
		}
	}
	return nil, false
}

// CPU returns the processor collector.
func (m *Metrics) CPU() *CPU { return m.cpu }

// Memory returns the memory collector.
func (m *Metrics) Memory() *Memory { return m.memory }

// Network returns the network collector.
func (m *Metrics) Network() *Network { return m.network }

// GPU returns the GPU collector, or nil when none was found.
func (m *Metrics) GPU() *GPU { return m.gpu }

// Close releases the GPU driver library, if one was opened.
func (m *Metrics) Close() error {
	if m.gpu == nil {
		return nil
	}
	return m.gpu.Close()
}

func capacity(n int) int {
	if n <= 0 {
		return history.DefaultCapacity
	}
	return n
}
