package platform

import (
	"context"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

// rknpuLoadPath is the RKNPU driver's debug load report, e.g.
//
//	NPU load:  Core0:  12%, Core1:  0%, Core2:  0%,
const rknpuLoadPath = "/sys/kernel/debug/rknpu/load"

// rknpuLoad returns a load reader for NPUs whose devfreq directory has no
// load file.
func rknpuLoad(r Runner) func(ctx context.Context) (float64, error) {
	return func(ctx context.Context) (float64, error) {
		out, err := r.ReadFile(ctx, rknpuLoadPath)
		if err != nil {
			return 0, err
		}
		return parseNPULoad(string(out))
	}
}

// parseNPULoad extracts the Core0 percentage from a multi-core report, or
// the first percentage of a single-core "NPU load: 12%" report.
func parseNPULoad(s string) (float64, error) {
	s = strings.TrimSpace(s)
	rest := s
	if _, after, ok := strings.Cut(s, "Core0:"); ok {
		rest = after
	} else if _, after, ok := strings.Cut(s, "load:"); ok {
		rest = after
	}
	num, _, _ := strings.Cut(rest, "%")
	num, _, _ = strings.Cut(strings.TrimSpace(num), ",")
	v, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return 0, &collectors.ParseError{Source: rknpuLoadPath, Line: s, Reason: "no load percentage"}
	}
	return float64(min(v, 100)), nil
}
