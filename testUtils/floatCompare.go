package testUtils

import (
	"math"
)

//FloatEqUpTo returns true if abs(a-b)<=maxDiff. Two NaN values are considered equal
func FloatEqUpTo(a, b, maxDiff float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= maxDiff
}

//FloatSliceEqUpTo returns true if FloatEqUpTo(a[i],b[i],maxDiff) holds for all elements
func FloatSliceEqUpTo(a, b []float64, maxDiff float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !FloatEqUpTo(a[i], b[i], maxDiff) {
			return false
		}
	}
	return true
}

//AllEqUpTo returns true if every element of s is within maxDiff of want
func AllEqUpTo(s []float64, want, maxDiff float64) bool {
	for i := range s {
		if !FloatEqUpTo(s[i], want, maxDiff) {
			return false
		}
	}
	return true
}
