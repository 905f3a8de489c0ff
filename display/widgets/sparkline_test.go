package widgets

import "testing"

func TestSparkline_Ascending(t *testing.T) {
	result := Sparkline([]float64{0, 25, 50, 75, 100}, 0, PercentScale, "")

	runes := []rune(result)
	if len(runes) != 5 {
		t.Fatalf("expected 5 characters, got %d: %q", len(runes), result)
	}
	if runes[0] != ' ' {
		t.Errorf("zero sample = %q, want blank", runes[0])
	}
	if runes[4] != '█' {
		t.Errorf("full sample = %q, want full block", runes[4])
	}
	for i := 1; i < len(runes); i++ {
		if runes[i] < runes[i-1] {
			t.Errorf("expected ascending blocks, rune %d (%c) < rune %d (%c)", i, runes[i], i-1, runes[i-1])
		}
	}
}

func TestSparkline_EmptyData(t *testing.T) {
	if got := Sparkline(nil, 0, PercentScale, ""); got != "" {
		t.Errorf("expected empty string for no data and no width, got %q", got)
	}
}

func TestSparkline_PadsLeft(t *testing.T) {
	result := Sparkline([]float64{100}, 4, PercentScale, "")
	if result != "   █" {
		t.Errorf("Sparkline = %q, want %q", result, "   █")
	}
}

func TestSparkline_KeepsNewest(t *testing.T) {
	result := Sparkline([]float64{100, 100, 0, 0}, 2, PercentScale, "")
	if result != "  " {
		t.Errorf("Sparkline = %q, want the two newest (zero) samples", result)
	}
}

func TestSparkline_SmallValueVisible(t *testing.T) {
	result := []rune(Sparkline([]float64{0.1}, 1, PercentScale, ""))
	if result[0] != '▁' {
		t.Errorf("tiny non-zero sample = %q, want lowest block", result[0])
	}
}

func TestScale_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		scale  Scale
		data   []float64
		lo, hi float64
	}{
		{"fixed", PercentScale, []float64{500}, 0, 100},
		{"auto", Scale{}, []float64{3, 12, 7}, 0, 12},
		{"auto all zero", Scale{}, []float64{0, 0}, 0, 1},
		{"auto empty", Scale{}, nil, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.scale.resolve(tt.data)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("resolve = (%v, %v), want (%v, %v)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
