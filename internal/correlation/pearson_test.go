package correlation

import (
	"math"
	"testing"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1},
		{"no variance in x", []float64{5, 5, 5}, []float64{1, 2, 3}, 0},
		{"no variance in y", []float64{1, 2, 3}, []float64{4, 4, 4}, 0},
		{"single pair", []float64{1}, []float64{2}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pearson(tt.xs, tt.ys)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pearson = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearsonSymmetry(t *testing.T) {
	xs := []float64{8, 4, 9, 7}
	ys := []float64{5, 2, 5, 4}
	if got, want := pearson(xs, ys), pearson(ys, xs); got != want {
		t.Errorf("pearson not symmetric: %v vs %v", got, want)
	}
}

func TestMeetsThreshold(t *testing.T) {
	if meetsThreshold(0.39999, 0.4) {
		t.Error("0.39999 should not meet 0.4")
	}
	if !meetsThreshold(0.4, 0.4) {
		t.Error("0.4 should meet 0.4 (inclusive)")
	}
	if !meetsThreshold(-0.5, 0.4) {
		t.Error("-0.5 should meet 0.4 by magnitude")
	}
}
