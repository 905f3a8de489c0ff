package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/delta"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

const (
	procStatPath = "/proc/stat"

	// scalingFreqPattern is the per-core current frequency file, in kHz.
	scalingFreqPattern = "/sys/devices/system/cpu/cpu%d/cpufreq/scaling_cur_freq"

	// minStatFields is the label plus the ten counters of delta.CPUTimes.
	minStatFields = 11
)

// CPU reads processor utilization from /proc/stat and per-core frequency
// from cpufreq.
type CPU struct {
	usage *history.Stream[float64]
	freqs []*history.Stream[uint64] // kHz, one per core
	prev  delta.CPUTimes

	// Overridable readers for testing.
	openProcStat func() (io.ReadCloser, error)
	readCoreFreq func(core int) ([]byte, error)
}

// NewCPU reads /proc/stat once. It fails with a *collectors.ParseError when the
// summary line has fewer than 11 fields.
func NewCPU(historyLen int) (*CPU, error) {
	return newCPU(historyLen,
		func() (io.ReadCloser, error) { return os.Open(procStatPath) },
		func(core int) ([]byte, error) { return os.ReadFile(fmt.Sprintf(scalingFreqPattern, core)) },
	)
}

func newCPU(historyLen int, openStat func() (io.ReadCloser, error), readFreq func(int) ([]byte, error)) (*CPU, error) {
	c := &CPU{
		openProcStat: openStat,
		readCoreFreq: readFreq,
	}

	times, cores, err := c.readStat()
	if err != nil {
		return nil, err
	}

	n := capacity(historyLen)
	c.prev = times
	c.usage = history.WithCapacity(0.0, n)
	c.freqs = make([]*history.Stream[uint64], cores)
	for i := range c.freqs {
		khz, _ := c.coreFreq(i)
		c.freqs[i] = history.WithCapacity(khz, n)
	}
	return c, nil
}

// Family implements collectors.Collector.
func (c *CPU) Family() collectors.Family { return collectors.FamilyCPU }

// Update pushes the usage since the previous snapshot and each core's
// current frequency. A core without a readable frequency file keeps its
// previous value.
func (c *CPU) Update(_ context.Context) error {
	curr, _, err := c.readStat()
	if err != nil {
		return collectors.Transient(err)
	}
	c.usage.Push(delta.CPUUsage(c.prev, curr))
	c.prev = curr

	for i, s := range c.freqs {
		if khz, ok := c.coreFreq(i); ok {
			s.Push(khz)
		}
	}
	return nil
}

func (c *CPU) coreFreq(core int) (uint64, bool) {
	data, err := c.readCoreFreq(core)
	if err != nil {
		return 0, false
	}
	khz, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return khz, true
}

// readStat parses the aggregate line and counts the per-core lines.
func (c *CPU) readStat() (delta.CPUTimes, int, error) {
	f, err := c.openProcStat()
	if err != nil {
		return delta.CPUTimes{}, 0, fmt.Errorf("platform: open %s: %w", procStatPath, err)
	}
	defer f.Close()
	return parseProcStat(f)
}

// parseProcStat reads the first line as the aggregate counters. Individual
// fields that fail to parse count as zero.
func parseProcStat(r io.Reader) (delta.CPUTimes, int, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return delta.CPUTimes{}, 0, fmt.Errorf("platform: read %s: %w", procStatPath, err)
		}
		return delta.CPUTimes{}, 0, &collectors.ParseError{Source: procStatPath, Reason: "empty file"}
	}

	first := scanner.Text()
	fields := strings.Fields(first)
	if len(fields) < minStatFields {
		return delta.CPUTimes{}, 0, &collectors.ParseError{
			Source: procStatPath,
			Line:   first,
			Reason: fmt.Sprintf("want at least %d fields, got %d", minStatFields, len(fields)),
		}
	}

	var v [10]uint64
	for i := range v {
		v[i], _ = strconv.ParseUint(fields[i+1], 10, 64)
	}
	times := delta.CPUTimes{
		User: v[0], Nice: v[1], System: v[2], Idle: v[3], IOWait: v[4],
		IRQ: v[5], SoftIRQ: v[6], Steal: v[7], Guest: v[8], GuestNice: v[9],
	}

	cores := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		label, _, _ := strings.Cut(line, " ")
		if _, err := strconv.Atoi(label[len("cpu"):]); err == nil {
			cores++
		}
	}
	return times, cores, nil
}

// Usage returns the latest utilization percentage.
func (c *CPU) Usage() float64 { return c.usage.Current() }

// UsageHistory returns the retained utilization samples, oldest first.
func (c *CPU) UsageHistory() []float64 { return c.usage.History() }

// CoreCount returns the number of logical cores found at construction.
func (c *CPU) CoreCount() int { return len(c.freqs) }

// FrequencyMHz returns the latest frequency of core, or 0 when out of range.
func (c *CPU) FrequencyMHz(core int) float64 {
	if core < 0 || core >= len(c.freqs) {
		return 0
	}
	return float64(c.freqs[core].Current()) / 1000
}

// FrequenciesMHz returns the latest frequency of every core.
func (c *CPU) FrequenciesMHz() []float64 {
	out := make([]float64, len(c.freqs))
	for i := range c.freqs {
		out[i] = c.FrequencyMHz(i)
	}
	return out
}

// FrequencyHistory returns the retained kHz samples of core.
func (c *CPU) FrequencyHistory(core int) []uint64 {
	if core < 0 || core >= len(c.freqs) {
		return nil
	}
	return c.freqs[core].History()
}
