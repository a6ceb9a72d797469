package strategy

import (
	"errors"
	"math"
	"testing"
)

func TestSimpleMovingAverageWarmup(t *testing.T) {
	got, err := SimpleMovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("SimpleMovingAverage returned error: %v", err)
	}
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN warm-up, got %v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got[i+2] != w {
			t.Fatalf("index %d: expected %.2f got %.2f", i+2, w, got[i+2])
		}
	}
}

func TestSimpleMovingAverageShortInput(t *testing.T) {
	got, err := SimpleMovingAverage([]float64{1, 2}, 5)
	if err != nil {
		t.Fatalf("SimpleMovingAverage returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %d", len(got))
	}
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("index %d: expected NaN got %.2f", i, v)
		}
	}
}

func TestSimpleMovingAverageRejectsPeriod(t *testing.T) {
	for _, period := range []int{0, -3} {
		if _, err := SimpleMovingAverage([]float64{1, 2, 3}, period); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("period %d: expected ErrInvalidPeriod, got %v", period, err)
		}
	}
}
