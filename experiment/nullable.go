package experiment

import "math"

//NullableFloats prepares a result column for JSON. NaN and infinite cells have no JSON encoding and
//become nil, which is written as null
func NullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			out[i] = &values[i]
		}
	}
	return out
}

//NaNFloats reverses NullableFloats, nil cells become NaN
func NaNFloats(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}
