package generic

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// Memory tracks physical memory usage.
type Memory struct {
	percent *history.Stream[float64]
	used    *history.Stream[uint64]
	total   uint64

	readMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewMemory creates the memory collector.
func NewMemory(historyLen int) *Memory {
	return newMemory(historyLen, mem.VirtualMemoryWithContext)
}

func newMemory(historyLen int, read func(context.Context) (*mem.VirtualMemoryStat, error)) *Memory {
	n := capacity(historyLen)
	return &Memory{
		percent:    history.WithCapacity(0.0, n),
		used:       history.WithCapacity(uint64(0), n),
		readMemory: read,
	}
}

// Family implements collectors.Collector.
func (m *Memory) Family() collectors.Family { return collectors.FamilyMemory }

// Update reads the current memory counters.
func (m *Memory) Update(ctx context.Context) error {
	vm, err := m.readMemory(ctx)
	if err != nil {
		return collectors.Transient(fmt.Errorf("generic: virtual memory: %w", err))
	}
	m.total = vm.Total
	m.used.Push(vm.Used)
	m.percent.Push(usedPercent(vm.Used, vm.Total))
	return nil
}

func usedPercent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	p := float64(used) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Usage returns the used share of physical memory as a percentage.
func (m *Memory) Usage() float64 { return m.percent.Current() }

// UsageHistory returns the retained percentage samples, oldest first.
func (m *Memory) UsageHistory() []float64 { return m.percent.History() }

// UsedBytes returns the most recent used-memory reading.
func (m *Memory) UsedBytes() uint64 { return m.used.Current() }

// UsedHistory returns the retained used-memory samples in bytes.
func (m *Memory) UsedHistory() []uint64 { return m.used.History() }

// TotalBytes returns the physical memory size from the last reading.
func (m *Memory) TotalBytes() uint64 { return m.total }
