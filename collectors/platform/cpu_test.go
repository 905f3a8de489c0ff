package platform

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

// stringReadCloser wraps a strings.Reader to implement io.ReadCloser.
type stringReadCloser struct {
	*strings.Reader
}

func (s *stringReadCloser) Close() error { return nil }

func newReadCloser(content string) io.ReadCloser {
	return &stringReadCloser{strings.NewReader(content)}
}

const procStatFixture = `cpu  100 10 50 200 20 5 15 0 0 0
cpu0 50 5 25 100 10 2 7 0 0 0
cpu1 50 5 25 100 10 3 8 0 0 0
intr 12345
ctxt 67890
`

// procStatSequence serves each /proc/stat body in turn, repeating the last.
func procStatSequence(bodies ...string) func() (io.ReadCloser, error) {
	i := 0
	return func() (io.ReadCloser, error) {
		b := bodies[min(i, len(bodies)-1)]
		i++
		return newReadCloser(b), nil
	}
}

func TestParseProcStat(t *testing.T) {
	times, cores, err := parseProcStat(strings.NewReader(procStatFixture))
	if err != nil {
		t.Fatalf("parseProcStat() error: %v", err)
	}
	if cores != 2 {
		t.Errorf("cores = %d, want 2", cores)
	}
	if times.User != 100 || times.Idle != 200 || times.SoftIRQ != 15 {
		t.Errorf("times = %+v", times)
	}
}

func TestParseProcStat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "too few fields", input: "cpu  1 2 3 4 5 6 7\ncpu0 1 2 3 4 5 6 7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseProcStat(strings.NewReader(tt.input))
			var pe *collectors.ParseError
			if !errors.As(err, &pe) {
				t.Errorf("parseProcStat() error = %v, want *ParseError", err)
			}
		})
	}
}

func TestParseProcStat_LenientFields(t *testing.T) {
	times, _, err := parseProcStat(strings.NewReader("cpu  100 x 50 200 20 5 15 0 0 ?\n"))
	if err != nil {
		t.Fatalf("parseProcStat() error: %v", err)
	}
	if times.Nice != 0 || times.GuestNice != 0 || times.User != 100 {
		t.Errorf("times = %+v, want malformed fields as zero", times)
	}
}

func TestCPU_Update(t *testing.T) {
	freqs := map[int]string{0: "1800000\n", 1: "408000\n"}
	readFreq := func(core int) ([]byte, error) {
		if v, ok := freqs[core]; ok {
			return []byte(v), nil
		}
		return nil, errors.New("no such file")
	}

	next := strings.Replace(procStatFixture,
		"cpu  100 10 50 200 20 5 15 0 0 0",
		"cpu  150 15 75 250 25 8 20 0 0 0", 1)
	c, err := newCPU(10, procStatSequence(procStatFixture, next), readFreq)
	if err != nil {
		t.Fatalf("newCPU() error: %v", err)
	}

	if c.CoreCount() != 2 {
		t.Fatalf("CoreCount() = %d, want 2", c.CoreCount())
	}
	if got := c.FrequencyMHz(0); got != 1800 {
		t.Errorf("FrequencyMHz(0) = %f, want 1800", got)
	}

	// Core 1 loses its cpufreq file; its stream must stay put.
	delete(freqs, 1)
	freqs[0] = "2208000"
	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	want := float64(143-55) / 143 * 100
	if math.Abs(c.Usage()-want) > 1e-9 {
		t.Errorf("Usage() = %f, want %f", c.Usage(), want)
	}
	got := c.FrequenciesMHz()
	if got[0] != 2208 || got[1] != 408 {
		t.Errorf("FrequenciesMHz() = %v, want [2208 408]", got)
	}
	if n := len(c.FrequencyHistory(1)); n != 1 {
		t.Errorf("core 1 history len = %d, want 1", n)
	}
	if c.FrequencyHistory(5) != nil || c.FrequencyMHz(-1) != 0 {
		t.Error("out-of-range core should yield zero values")
	}
}

func TestNewCPU_ParseErrorIsHard(t *testing.T) {
	_, err := newCPU(10, procStatSequence("cpu 1 2 3\n"), func(int) ([]byte, error) { return nil, nil })
	var pe *collectors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("newCPU() error = %v, want *ParseError", err)
	}
	if errors.Is(err, collectors.ErrTransient) {
		t.Error("construction failure must not be transient")
	}
}

func TestCPU_UpdateOpenFailureIsTransient(t *testing.T) {
	calls := 0
	open := func() (io.ReadCloser, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("too many open files")
		}
		return newReadCloser(procStatFixture), nil
	}
	c, err := newCPU(10, open, func(int) ([]byte, error) { return nil, errors.New("none") })
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Update(context.Background()); !errors.Is(err, collectors.ErrTransient) {
		t.Errorf("Update() = %v, want ErrTransient", err)
	}
}
