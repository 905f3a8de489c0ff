package generic

import (
	"context"
	"fmt"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// Device is the subset of a vendor GPU management library the GPU
// collector reads.
type Device interface {
	Name() (string, error)
	// Utilization returns the busy percentage of the graphics engine.
	Utilization() (uint32, error)
	// Memory returns used and total device memory in bytes.
	Memory() (used, total uint64, err error)
	// Close releases the library handle.
	Close() error
}

// GPU tracks utilization and memory of the first discrete GPU.
type GPU struct {
	dev      Device
	name     string
	usage    *history.Stream[float64]
	memory   *history.Stream[float64]
	memUsed  uint64
	memTotal uint64
}

// NewGPU opens device 0 through NVML. It fails with an error wrapping
// collectors.ErrUnavailable when the driver library or the device is absent.
func NewGPU(historyLen int) (*GPU, error) {
	dev, err := openNVML()
	if err != nil {
		return nil, err
	}
	return newGPU(historyLen, dev), nil
}

func newGPU(historyLen int, dev Device) *GPU {
	n := capacity(historyLen)
	g := &GPU{
		dev:    dev,
		usage:  history.WithCapacity(0.0, n),
		memory: history.WithCapacity(0.0, n),
	}
	if name, err := dev.Name(); err == nil {
		g.name = name
	}
	return g
}

// Family implements collectors.Collector.
func (g *GPU) Family() collectors.Family { return collectors.FamilyGPU }

// Update reads utilization and memory. Each value is skipped independently
// on failure; the first failure is reported as transient.
func (g *GPU) Update(_ context.Context) error {
	var first error

	if util, err := g.dev.Utilization(); err != nil {
		first = fmt.Errorf("generic: gpu utilization: %w", err)
	} else {
		g.usage.Push(min(float64(util), 100))
	}

	if used, total, err := g.dev.Memory(); err != nil {
		if first == nil {
			first = fmt.Errorf("generic: gpu memory: %w", err)
		}
	} else {
		g.memUsed, g.memTotal = used, total
		g.memory.Push(usedPercent(used, total))
	}

	return collectors.Transient(first)
}

// Name returns the device name reported by the driver.
func (g *GPU) Name() string { return g.name }

// Usage returns the latest utilization percentage.
func (g *GPU) Usage() float64 { return g.usage.Current() }

// UsageHistory returns the retained utilization samples, oldest first.
func (g *GPU) UsageHistory() []float64 { return g.usage.History() }

// MemoryPercent returns the used share of device memory.
func (g *GPU) MemoryPercent() float64 { return g.memory.Current() }

// MemoryHistory returns the retained device memory percentages.
func (g *GPU) MemoryHistory() []float64 { return g.memory.History() }

// MemoryBytes returns used and total device memory from the last reading.
func (g *GPU) MemoryBytes() (used, total uint64) { return g.memUsed, g.memTotal }

// Close releases the driver library.
func (g *GPU) Close() error {
	if g.dev == nil {
		return nil
	}
	err := g.dev.Close()
	g.dev = nil
	return err
}
