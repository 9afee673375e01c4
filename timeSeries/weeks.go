package timeSeries

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var ErrSeriesTooShort = errors.New("series does not cover a full year")

//DefaultWeeks are the 0-based weeks of the year simulated by the solver models
var DefaultWeeks = []int{2, 7, 12, 17, 22, 27, 32, 37, 42, 47}

//Reducer shortens a multi-year quarter-hour series to the characteristic weeks
type Reducer func(series []float64) ([]float64, error)

//Weeks selects characteristic weeks by their 0-based number within a year
type Weeks struct {
	Numbers []int
}

func (w Weeks) validate(series []float64) (int, error) {
	years := len(series) / QuartersPerYear
	if years == 0 {
		return 0, fmt.Errorf("%w : got %v values, need %v", ErrSeriesTooShort, len(series), QuartersPerYear)
	}
	if len(w.Numbers) == 0 {
		return 0, fmt.Errorf("no characteristic weeks configured")
	}
	for _, n := range w.Numbers {
		if n < 0 || (n+1)*QuartersPerWeek > QuartersPerYear {
			return 0, fmt.Errorf("week %v is outside of the year", n)
		}
	}
	return years, nil
}

//Representative takes the i-th characteristic week from year i modulo the number of years in series,
//so the reduced series follows the development over the horizon
func (w Weeks) Representative(series []float64) ([]float64, error) {
	years, err := w.validate(series)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(w.Numbers)*QuartersPerWeek)
	for i, n := range w.Numbers {
		start := (i%years)*QuartersPerYear + n*QuartersPerWeek
		out = append(out, series[start:start+QuartersPerWeek]...)
	}
	return out, nil
}

//Average computes for every characteristic week the element wise arithmetic mean of that week over all
//years in series
func (w Weeks) Average(series []float64) ([]float64, error) {
	years, err := w.validate(series)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(w.Numbers)*QuartersPerWeek)
	for _, n := range w.Numbers {
		week := make([]float64, QuartersPerWeek)
		for year := 0; year < years; year++ {
			start := year*QuartersPerYear + n*QuartersPerWeek
			floats.Add(week, series[start:start+QuartersPerWeek])
		}
		floats.Scale(1/float64(years), week)
		out = append(out, week...)
	}
	return out, nil
}

//ReducerCreator is the common constructor type for Reducer
type ReducerCreator func(weeks []int) Reducer

//availableReducers hand edited list of reducers selectable by name from the configuration
var availableReducers = map[string]ReducerCreator{
	"characteristicWeeks": func(weeks []int) Reducer {
		return Weeks{Numbers: weeks}.Representative
	},
	"weekAverage": func(weeks []int) Reducer {
		return Weeks{Numbers: weeks}.Average
	},
}

//GetAvailableReducers returns a sorted slice with all valid names for GetReducer
func GetAvailableReducers() []string {
	names := make([]string, 0, len(availableReducers))
	for key := range availableReducers {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

//GetReducer returns the reducer registered for name, operating on weeks
func GetReducer(name string, weeks []int) (Reducer, error) {
	creator, ok := availableReducers[name]
	if !ok {
		return nil, fmt.Errorf("unknown reducer %q, available are %v", name, GetAvailableReducers())
	}
	return creator(weeks), nil
}
