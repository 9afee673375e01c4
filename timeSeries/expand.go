//Package timeSeries expands scalar scenario parameters into multi-year quarter-hour series and reduces
//those series to the characteristic weeks simulated by the solver
package timeSeries

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	QuartersPerHour = 4
	HoursPerDay     = 24
	QuartersPerDay  = QuartersPerHour * HoursPerDay
	DaysPerYear     = 365
	DaysPerWeek     = 7
	QuartersPerWeek = QuartersPerDay * DaysPerWeek
	QuartersPerYear = QuartersPerDay * DaysPerYear
)

//ScaleLinear repeats base once per year of the horizon. In year y every value moves linearly from its base
//value towards base*factor, i.e. base + (base*factor-base)*y/horizon, reaching the full scaling in the last year
func ScaleLinear(base []float64, factor float64, horizon int) []float64 {
	out := make([]float64, 0, len(base)*horizon)
	for year := 1; year <= horizon; year++ {
		for _, value := range base {
			step := (value*factor - value) / float64(horizon)
			out = append(out, value+step*float64(year))
		}
	}
	return out
}

//InterpolatePair moves from the baseline series towards target*factor over the horizon, like ScaleLinear
//but with a separate target series. Each interpolated value is repeated repeat times, e.g. 4 to turn hourly
//values into quarter hours
func InterpolatePair(baseline, target []float64, factor float64, horizon, repeat int) ([]float64, error) {
	if len(baseline) != len(target) {
		return nil, fmt.Errorf("baseline has %v values but target has %v", len(baseline), len(target))
	}
	out := make([]float64, 0, len(baseline)*horizon*repeat)
	for year := 1; year <= horizon; year++ {
		for i := range baseline {
			step := (target[i]*factor - baseline[i]) / float64(horizon)
			est := baseline[i] + step*float64(year)
			for r := 0; r < repeat; r++ {
				out = append(out, est)
			}
		}
	}
	return out, nil
}

//DailyToTarget returns one value per day for days 1..days on the straight line from current (day 0) to
//future (last day)
func DailyToTarget(current, future float64, days int) []float64 {
	gradient := (future - current) / float64(days)
	out := make([]float64, days)
	for d := range out {
		out[d] = gradient*float64(d+1) + current
	}
	return out
}

//LinearToTarget expands DailyToTarget to stepsPerDay values per day
func LinearToTarget(current, future float64, days, stepsPerDay int) []float64 {
	return Repeat(DailyToTarget(current, future, days), stepsPerDay)
}

//DailySinusoid returns amplitude*sin(2*pi*t*cyclesPerYear/365)+offset for days t in [0,days[
func DailySinusoid(cyclesPerYear, amplitude, offset float64, days int) []float64 {
	cyclesPerDay := cyclesPerYear / DaysPerYear
	out := make([]float64, days)
	for t := range out {
		out[t] = amplitude*math.Sin(cyclesPerDay*2*math.Pi*float64(t)) + offset
	}
	return out
}

//Sinusoid expands DailySinusoid to stepsPerDay values per day
func Sinusoid(cyclesPerYear, amplitude, offset float64, days, stepsPerDay int) []float64 {
	return Repeat(DailySinusoid(cyclesPerYear, amplitude, offset, days), stepsPerDay)
}

//Repeat returns a series where every value of values occurs n times in a row
func Repeat(values []float64, n int) []float64 {
	out := make([]float64, 0, len(values)*n)
	for _, v := range values {
		for i := 0; i < n; i++ {
			out = append(out, v)
		}
	}
	return out
}

//RoundedMean is the arithmetic mean of values rounded half to even
func RoundedMean(values []float64) float64 {
	return math.RoundToEven(stat.Mean(values, nil))
}

//WithDefault prepends the rounded mean of reduced. The solver uses the first entry of a series
//as the default value of the variable
func WithDefault(reduced []float64) []float64 {
	out := make([]float64, 0, len(reduced)+1)
	out = append(out, RoundedMean(reduced))
	return append(out, reduced...)
}
