package generic

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v3/cpu"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/delta"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

// userHZ is the kernel tick rate gopsutil divides by when it reports
// processor times in seconds.
const userHZ = 100

// CPU tracks aggregate processor utilization through gopsutil.
type CPU struct {
	usage  *history.Stream[float64]
	model  string
	prev   delta.CPUTimes
	primed bool

	// readTimes is overridable for testing.
	readTimes func(ctx context.Context) (delta.CPUTimes, error)
}

// NewCPU creates the processor collector and takes its first snapshot.
// A failed first snapshot is not fatal; the next successful Update primes
// the collector instead.
func NewCPU(ctx context.Context, historyLen int) *CPU {
	c := newCPU(historyLen, readCPUTimes)
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		c.model = infos[0].ModelName
	}
	c.prime(ctx)
	return c
}

func newCPU(historyLen int, read func(context.Context) (delta.CPUTimes, error)) *CPU {
	return &CPU{
		usage:     history.WithCapacity(0.0, capacity(historyLen)),
		readTimes: read,
	}
}

func (c *CPU) prime(ctx context.Context) {
	if t, err := c.readTimes(ctx); err == nil {
		c.prev = t
		c.primed = true
	}
}

// Family implements collectors.Collector.
func (c *CPU) Family() collectors.Family { return collectors.FamilyCPU }

// Update takes a new snapshot and pushes the usage since the previous one.
func (c *CPU) Update(ctx context.Context) error {
	curr, err := c.readTimes(ctx)
	if err != nil {
		return collectors.Transient(fmt.Errorf("generic: cpu times: %w", err))
	}
	if !c.primed {
		c.prev = curr
		c.primed = true
		return nil
	}
	c.usage.Push(delta.CPUUsage(c.prev, curr))
	c.prev = curr
	return nil
}

// Usage returns the most recent utilization percentage.
func (c *CPU) Usage() float64 { return c.usage.Current() }

// UsageHistory returns the retained utilization samples, oldest first.
func (c *CPU) UsageHistory() []float64 { return c.usage.History() }

// Model returns the processor model name, or "" when unknown.
func (c *CPU) Model() string { return c.model }

func readCPUTimes(ctx context.Context) (delta.CPUTimes, error) {
	stats, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return delta.CPUTimes{}, err
	}
	if len(stats) == 0 {
		return delta.CPUTimes{}, errors.New("no aggregate cpu entry")
	}
	return timesFromStat(stats[0]), nil
}

// timesFromStat converts gopsutil's seconds back into kernel ticks so the
// delta math works on integer counters.
func timesFromStat(s cpu.TimesStat) delta.CPUTimes {
	return delta.CPUTimes{
		User:      ticks(s.User),
		Nice:      ticks(s.Nice),
		System:    ticks(s.System),
		Idle:      ticks(s.Idle),
		IOWait:    ticks(s.Iowait),
		IRQ:       ticks(s.Irq),
		SoftIRQ:   ticks(s.Softirq),
		Steal:     ticks(s.Steal),
		Guest:     ticks(s.Guest),
		GuestNice: ticks(s.GuestNice),
	}
}

func ticks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * userHZ))
}
