package travel

import "testing"

func TestCrudeOracleNeverGoesNegativeDepth(t *testing.T) {
	o := CrudeOracle{}
	a := o.Travel(-5, 100, false)
	b := o.Travel(0, 100, false)
	if a != b {
		t.Fatalf("expected negative depth to clamp to zero, got %v vs %v", a, b)
	}
}

func TestMemoizedCachesRoundedKey(t *testing.T) {
	m := NewMemoized(CrudeOracle{})
	a := m.Travel(12, 101, false)
	b := m.Travel(14, 100.6, false)
	if a != b {
		t.Fatalf("expected rounded depth/distance to collapse to one cache entry, got %v vs %v", a, b)
	}
}
