package testUtils

import "testing"

func TestDRNGFloat64SliceInRange(t *testing.T) {
	a := DRNGFloat64SliceInRange(1000, 7, 20, 80)
	b := DRNGFloat64SliceInRange(1000, 7, 20, 80)
	if !FloatSliceEqUpTo(a, b, 0) {
		t.Errorf("same seed must give same sequence")
	}
	for i, v := range a {
		if v < 20 || v >= 80 {
			t.Fatalf("value %v at %v out of range", v, i)
		}
	}
	if FloatSliceEqUpTo(a, DRNGFloat64SliceInRange(1000, 8, 20, 80), 0) {
		t.Errorf("different seeds gave equal sequences")
	}
}
