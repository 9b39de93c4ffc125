package fusion

import (
	"math"
	"testing"
	"time"
)

func TestSliderNeutralWithoutLongHistory(t *testing.T) {
	s := NewSlider()
	now := time.Now()
	v := s.Observe(now)
	if math.Abs(v-1.0) > 1e-9 {
		t.Fatalf("expected a neutral smoothed value of 1.0, got %v", v)
	}
}

func TestSliderClippedToBounds(t *testing.T) {
	s := NewSlider()
	now := time.Now()
	for i := 0; i < 500; i++ {
		now = now.Add(10 * time.Millisecond)
		s.Observe(now)
	}
	v := s.Value()
	if v < 0.7 || v > 1.5 {
		t.Fatalf("expected smoothed value within [0.7, 1.5], got %v", v)
	}
}
