package tui

import (
	"testing"

	"gitlab.com/tinyland/lab/boardtop/collectors"
	"gitlab.com/tinyland/lab/boardtop/config"
)

type coreReader struct {
	fakeReader
	freqs []float64
}

func (r coreReader) CoreCount() int            { return len(r.freqs) }
func (r coreReader) FrequenciesMHz() []float64 { return r.freqs }

type devfreqReader struct {
	fakeReader
	mhz float64
}

func (r devfreqReader) FrequencyMHz() float64 { return r.mhz }

type memReader struct {
	fakeReader
	used, total uint64
}

func (r memReader) UsedBytes() uint64  { return r.used }
func (r memReader) TotalBytes() uint64 { return r.total }

type gpuReader struct {
	fakeReader
	name        string
	used, total uint64
}

func (r gpuReader) Name() string                      { return r.name }
func (r gpuReader) MemoryBytes() (used, total uint64) { return r.used, r.total }

type modelReader struct {
	fakeReader
	model string
}

func (r modelReader) Model() string { return r.model }

func TestCoreFrequencyText(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
		want  string
	}{
		{"none", nil, "N/A"},
		{"single", []float64{1800}, "1.80 GHz"},
		{"all equal", []float64{408, 408, 408}, "408 MHz (all cores)"},
		{"range", []float64{408, 1800, 2256}, "408 MHz - 2.26 GHz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coreFrequencyText(tt.freqs); got != tt.want {
				t.Errorf("coreFrequencyText(%v) = %q, want %q", tt.freqs, got, tt.want)
			}
		})
	}
}

func TestUsageTitleAndInfo(t *testing.T) {
	tests := []struct {
		name      string
		family    collectors.Family
		reader    collectors.UsageReader
		wantTitle string
		wantInfo  string
	}{
		{
			name:      "platform cpu",
			family:    collectors.FamilyCPU,
			reader:    coreReader{freqs: []float64{1800, 1800}},
			wantTitle: "CPU - 2 cores",
			wantInfo:  "Frequency: 1.80 GHz (all cores)",
		},
		{
			name:      "generic cpu",
			family:    collectors.FamilyCPU,
			reader:    modelReader{model: "Cortex-A76"},
			wantTitle: "CPU - Cortex-A76",
		},
		{
			name:      "memory",
			family:    collectors.FamilyMemory,
			reader:    memReader{used: 2 << 30, total: 8 << 30},
			wantTitle: "Memory",
			wantInfo:  "Used: 2.0 GiB / 8.0 GiB",
		},
		{
			name:      "devfreq",
			family:    collectors.FamilyNPU,
			reader:    devfreqReader{mhz: 1000},
			wantTitle: "NPU",
			wantInfo:  "Frequency: 1.00 GHz",
		},
		{
			name:      "nvml gpu",
			family:    collectors.FamilyGPU,
			reader:    gpuReader{name: "RTX", used: 1 << 30, total: 4 << 30},
			wantTitle: "GPU - RTX",
			wantInfo:  "Memory: 1.0 GiB / 4.0 GiB",
		},
		{
			name:      "plain",
			family:    collectors.FamilyRGA,
			reader:    fakeReader{},
			wantTitle: "RGA",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usageTitle(tt.family, tt.reader); got != tt.wantTitle {
				t.Errorf("usageTitle = %q, want %q", got, tt.wantTitle)
			}
			if got := usageInfo(tt.reader); got != tt.wantInfo {
				t.Errorf("usageInfo = %q, want %q", got, tt.wantInfo)
			}
		})
	}
}

func TestBuildPanels(t *testing.T) {
	cfg := config.DefaultConfig().With(func(c *config.Config) {
		c.ShowMemory = false
	})
	caps := []collectors.Family{collectors.FamilyCPU, collectors.FamilyMemory, collectors.FamilyNPU}

	panels := buildPanels(cfg, caps)
	want := map[collectors.Family]bool{
		collectors.FamilyCPU:     true,
		collectors.FamilyMemory:  false, // hidden
		collectors.FamilyNetwork: false, // no source
		collectors.FamilyGPU:     false,
		collectors.FamilyNPU:     true,
		collectors.FamilyRGA:     false,
	}
	for i, p := range panels {
		if p.family != collectors.Families()[i] {
			t.Errorf("panel %d family = %v, want display order", i, p.family)
		}
		if p.enabled != want[p.family] {
			t.Errorf("%v enabled = %v, want %v", p.family, p.enabled, want[p.family])
		}
	}
}
