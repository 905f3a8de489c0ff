package widgets

import (
	"math"
	"strings"
	"testing"
)

func TestGauge_Fill(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		filled  int
		text    string
	}{
		{"zero", 0, 0, "  0%"},
		{"half", 50, 10, " 50%"},
		{"full", 100, 20, "100%"},
		{"over", 140, 20, "100%"},
		{"negative", -5, 0, "  0%"},
		{"nan", math.NaN(), 0, "  0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Gauge(tt.percent, 20, DefaultThresholds)

			if got := strings.Count(result, "█"); got != tt.filled {
				t.Errorf("filled = %d, want %d (%q)", got, tt.filled, result)
			}
			if got := strings.Count(result, "░"); got != 20-tt.filled {
				t.Errorf("empty = %d, want %d (%q)", got, 20-tt.filled, result)
			}
			if !strings.HasSuffix(result, tt.text) {
				t.Errorf("expected suffix %q, got %q", tt.text, result)
			}
		})
	}
}

func TestGauge_DefaultWidth(t *testing.T) {
	result := Gauge(100, 0, DefaultThresholds)
	if got := strings.Count(result, "█"); got != 20 {
		t.Errorf("zero width should default to 20, got %d filled", got)
	}
}

func TestThresholds_Color(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, string(colorOK)},
		{69.9, string(colorOK)},
		{70, string(colorWarning)},
		{89, string(colorWarning)},
		{90, string(colorDanger)},
		{100, string(colorDanger)},
	}

	for _, tt := range tests {
		if got := DefaultThresholds.Color(tt.percent); string(got) != tt.want {
			t.Errorf("Color(%v) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}
