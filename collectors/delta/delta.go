// Package delta turns pairs of cumulative counter snapshots into rates and
// percentages. Every function is pure; callers own the previous snapshot.
//
// Counters are assumed monotonic within one source. A counter that went
// backwards is a reset and yields zero for that tick, never a negative value.
package delta

import "time"

// MinRateInterval is the debounce floor for rate computation. Two polls
// closer together than this are skipped to avoid dividing by near-zero.
const MinRateInterval = 100 * time.Millisecond

// CPUTimes is one snapshot of the aggregate processor tick counters, in the
// bucket order of the /proc/stat summary line.
type CPUTimes struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Total sums every bucket except the guest fields, which the kernel already
// accounts inside user and nice.
func (t CPUTimes) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// IdleTotal is the idle share of Total: idle plus io-wait.
func (t CPUTimes) IdleTotal() uint64 {
	return t.Idle + t.IOWait
}

// CPUUsage returns the busy percentage between two snapshots:
//
//	(totalDiff - idleDiff) / totalDiff * 100
//
// It returns 0 when no ticks elapsed or when either counter went backwards.
func CPUUsage(prev, curr CPUTimes) float64 {
	prevTotal, currTotal := prev.Total(), curr.Total()
	prevIdle, currIdle := prev.IdleTotal(), curr.IdleTotal()

	if currTotal <= prevTotal || currIdle < prevIdle {
		return 0
	}
	totalDiff := currTotal - prevTotal
	idleDiff := currIdle - prevIdle
	if idleDiff >= totalDiff {
		return 0
	}

	usage := float64(totalDiff-idleDiff) / float64(totalDiff) * 100
	if usage > 100 {
		usage = 100
	}
	return usage
}

// Elapsed returns now - prev, or 0 when the clock moved backwards.
func Elapsed(prev, now time.Time) time.Duration {
	d := now.Sub(prev)
	if d < 0 {
		return 0
	}
	return d
}

// Debounced reports whether a rate sample taken after elapsed must be
// skipped because it falls below MinRateInterval.
func Debounced(elapsed time.Duration) bool {
	return elapsed < MinRateInterval
}

// Mbps converts a byte counter delta over elapsed into megabits per second:
//
//	bytes * 8 / (1_000_000 * seconds)
//
// A counter reset or a non-positive elapsed time yields 0.
func Mbps(prevBytes, currBytes uint64, elapsed time.Duration) float64 {
	if currBytes < prevBytes || elapsed <= 0 {
		return 0
	}
	secs := elapsed.Seconds()
	return float64(currBytes-prevBytes) * 8 / (1_000_000 * secs)
}
