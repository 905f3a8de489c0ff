package platform

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/collectors/history"
)

const (
	rgaLoadPath    = "/sys/kernel/debug/rkrga/load"
	clkSummaryPath = "/sys/kernel/debug/clk/clk_summary"
)

// rgaKeywords select clock lines that belong to the RGA blocks.
var rgaKeywords = []string{"rga", "RGA"}

// RGA reads Rockchip RGA load and clock rate from debugfs through a Runner.
type RGA struct {
	runner Runner
	load   *history.Stream[float64]
	freq   *history.Stream[float64] // MHz
}

// NewRGA creates the RGA collector. It performs no probing; a host without
// the debug interface fails transiently on every Update.
func NewRGA(r Runner, historyLen int) *RGA {
	n := capacity(historyLen)
	return &RGA{
		runner: r,
		load:   history.WithCapacity(0.0, n),
		freq:   history.WithCapacity(0.0, n),
	}
}

// Family implements collectors.Collector.
func (g *RGA) Family() collectors.Family { return collectors.FamilyRGA }

// Update reads the load report and the clock summary. Each failed read
// skips only its own stream; failures are reported as transient.
func (g *RGA) Update(ctx context.Context) error {
	var errs []error

	if out, err := g.runner.ReadFile(ctx, rgaLoadPath); err != nil {
		errs = append(errs, err)
	} else if load, err := parseRGALoad(string(out)); err != nil {
		errs = append(errs, err)
	} else {
		g.load.Push(load)
	}

	if out, err := g.runner.ReadFile(ctx, clkSummaryPath); err != nil {
		errs = append(errs, err)
	} else if mhz, ok := extractFrequencyMHz(string(out), rgaKeywords); ok {
		g.freq.Push(mhz)
	}

	return collectors.Transient(errors.Join(errs...))
}

// parseRGALoad returns the first percentage following "load =" in a
// multi-scheduler report such as
//
//	scheduler[0]: rga3_core0
//		 load = 12%
//
// falling back to a bare integer. The result is clamped to 100.
func parseRGALoad(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "load =") {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, &collectors.ParseError{Source: rgaLoadPath, Line: firstLine(s), Reason: "no load percentage"}
		}
		return float64(min(v, 100)), nil
	}

	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		_, after, ok := strings.Cut(scanner.Text(), "load =")
		if !ok {
			continue
		}
		num, _, _ := strings.Cut(after, "%")
		if v, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64); err == nil {
			return float64(min(v, 100)), nil
		}
	}
	return 0, &collectors.ParseError{Source: rgaLoadPath, Line: firstLine(s), Reason: "no load percentage"}
}

// extractFrequencyMHz scans clk_summary style output for the first line
// containing a keyword, then takes the first integer field after the token
// holding the keyword. Values above 1,000,000 are taken as Hz and converted;
// smaller values are returned unchanged. It reports false when no line
// matches.
//
// The cut-off is a heuristic: a clock genuinely running below 1 MHz would be
// reported as if it were already in MHz.
func extractFrequencyMHz(s string, keywords []string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := scanner.Text()
		if !containsAny(line, keywords) {
			continue
		}
		fields := strings.Fields(line)
		for i, tok := range fields {
			if !containsAny(tok, keywords) {
				continue
			}
			for _, f := range fields[i+1:] {
				v, err := strconv.ParseUint(f, 10, 64)
				if err != nil {
					continue
				}
				if v > 1_000_000 {
					return float64(v / 1_000_000), true
				}
				return float64(v), true
			}
		}
	}
	return 0, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// Usage returns the latest load percentage.
func (g *RGA) Usage() float64 { return g.load.Current() }

// UsageHistory returns the retained load samples, oldest first.
func (g *RGA) UsageHistory() []float64 { return g.load.History() }

// FrequencyMHz returns the latest RGA core clock.
func (g *RGA) FrequencyMHz() float64 { return g.freq.Current() }

// FrequencyHistory returns the retained clock samples in MHz.
func (g *RGA) FrequencyHistory() []float64 { return g.freq.History() }
