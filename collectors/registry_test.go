package collectors

import (
	"context"
	"errors"
	"testing"
)

// stubCollector is a minimal Collector implementation for registry tests.
type stubCollector struct {
	family  Family
	err     error
	updates int
}

func (s *stubCollector) Family() Family { return s.family }

func (s *stubCollector) Update(_ context.Context) error {
	s.updates++
	return s.err
}

func TestFamilyNames(t *testing.T) {
	tests := []struct {
		family    Family
		wantName  string
		wantTitle string
	}{
		{FamilyCPU, "cpu", "CPU"},
		{FamilyMemory, "memory", "Memory"},
		{FamilyNetwork, "network", "Network"},
		{FamilyGPU, "gpu", "GPU"},
		{FamilyNPU, "npu", "NPU"},
		{FamilyRGA, "rga", "RGA"},
		{Family(99), "family(99)", "family(99)"},
	}
	for _, tt := range tests {
		if got := tt.family.String(); got != tt.wantName {
			t.Errorf("String() = %q, want %q", got, tt.wantName)
		}
		if got := tt.family.Title(); got != tt.wantTitle {
			t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
		}
	}

	if got := len(Families()); got != 6 {
		t.Errorf("Families() returned %d entries, want 6", got)
	}
}

func TestRegistry_RegisterReplacesSameFamily(t *testing.T) {
	reg := NewRegistry(nil)

	first := &stubCollector{family: FamilyGPU}
	second := &stubCollector{family: FamilyGPU}
	reg.Register(&stubCollector{family: FamilyCPU})
	reg.Register(first)
	reg.Register(second)

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	got, ok := reg.Get(FamilyGPU)
	if !ok || got != second {
		t.Errorf("Get(gpu) = %v, %v; want replacement collector", got, ok)
	}
	fams := reg.Families()
	if fams[0] != FamilyCPU || fams[1] != FamilyGPU {
		t.Errorf("Families() = %v, want [cpu gpu]", fams)
	}
	if _, ok := reg.Get(FamilyRGA); ok {
		t.Error("Get(rga) = true on registry without rga")
	}
}

// TestRegistry_UpdateRunsEveryCollector verifies that neither a transient nor
// a hard failure stops the pass, and that only the first hard failure is
// reported.
func TestRegistry_UpdateRunsEveryCollector(t *testing.T) {
	hard := errors.New("boom")
	cpu := &stubCollector{family: FamilyCPU, err: Transient(errors.New("flaky"))}
	gpu := &stubCollector{family: FamilyGPU, err: hard}
	npu := &stubCollector{family: FamilyNPU, err: errors.New("second")}
	rga := &stubCollector{family: FamilyRGA}

	reg := NewRegistry(nil)
	for _, c := range []*stubCollector{cpu, gpu, npu, rga} {
		reg.Register(c)
	}

	err := reg.Update(context.Background())
	if !errors.Is(err, hard) {
		t.Errorf("Update() error = %v, want wrapping %v", err, hard)
	}
	for _, c := range []*stubCollector{cpu, gpu, npu, rga} {
		if c.updates != 1 {
			t.Errorf("%s updated %d times, want 1", c.family, c.updates)
		}
	}
}

func TestRegistry_UpdateTransientOnly(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(&stubCollector{family: FamilyRGA, err: Transient(errors.New("sudo: a password is required"))})

	if err := reg.Update(context.Background()); err != nil {
		t.Errorf("Update() = %v, want nil for transient failures", err)
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("cause")

	if err := Transient(cause); !errors.Is(err, ErrTransient) || !errors.Is(err, cause) {
		t.Errorf("Transient() = %v, want both ErrTransient and cause", err)
	}
	if err := Unavailable(cause); !errors.Is(err, ErrUnavailable) || !errors.Is(err, cause) {
		t.Errorf("Unavailable() = %v, want both ErrUnavailable and cause", err)
	}
	if Transient(nil) != nil || Unavailable(nil) != nil {
		t.Error("wrapping nil should return nil")
	}

	var pe *ParseError
	err := Unavailable(&ParseError{Source: "/proc/stat", Line: "cpu 1 2", Reason: "too few fields"})
	if !errors.As(err, &pe) {
		t.Fatalf("errors.As(%v, *ParseError) = false", err)
	}
	want := `parse /proc/stat: too few fields: "cpu 1 2"`
	if pe.Error() != want {
		t.Errorf("Error() = %q, want %q", pe.Error(), want)
	}
}
