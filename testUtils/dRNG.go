package testUtils

import "math/rand"

//DRNGFloat64Slice wraps DRNGFloat64SliceInRange with range [-1000,1000[
func DRNGFloat64Slice(length int, seed int64) []float64 {
	return DRNGFloat64SliceInRange(length, seed, -1000, 1000)
}

//DRNGFloat64SliceInRange returns a slice of length entries with pseudo random values in [min,max[.
//Calling with the same seed will yield the same sequence. Intended to generate price and volume
//series for tests without storing them in the repository
func DRNGFloat64SliceInRange(length int, seed int64, min, max float64) []float64 {
	dRNG := rand.New(rand.NewSource(seed))
	buf := make([]float64, length)
	for i := range buf {
		buf[i] = min + dRNG.Float64()*(max-min)
	}
	return buf
}
