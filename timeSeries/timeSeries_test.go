package timeSeries

import (
	"errors"
	"math"
	"testing"

	"lrcSuite/testUtils"
)

func TestScaleLinear_IdentityFactor(t *testing.T) {
	base := testUtils.DRNGFloat64SliceInRange(500, 3, -100, 300)
	const horizon = 10
	got := ScaleLinear(base, 1.0, horizon)
	if len(got) != horizon*len(base) {
		t.Fatalf("want %v values got %v", horizon*len(base), len(got))
	}
	for year := 0; year < horizon; year++ {
		if !testUtils.FloatSliceEqUpTo(got[year*len(base):(year+1)*len(base)], base, 0) {
			t.Errorf("year %v differs from the base series", year+1)
		}
	}
}

func TestScaleLinear(t *testing.T) {
	got := ScaleLinear([]float64{100, -10}, 1.15, 3)
	want := []float64{105, -10.5, 110, -11, 115, -11.5}
	if !testUtils.FloatSliceEqUpTo(got, want, 1e-9) {
		t.Errorf("want %v got %v", want, got)
	}
}

func TestInterpolatePair(t *testing.T) {
	got, err := InterpolatePair([]float64{40, 50}, []float64{60, 50}, 1.0, 2, 4)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	want := []float64{
		50, 50, 50, 50, 50, 50, 50, 50,
		60, 60, 60, 60, 50, 50, 50, 50,
	}
	if !testUtils.FloatSliceEqUpTo(got, want, 1e-9) {
		t.Errorf("want %v got %v", want, got)
	}

	//factor scales the target, not the baseline
	got, err = InterpolatePair([]float64{40}, []float64{60}, 0.5, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if got[0] != 30 {
		t.Errorf("want 30 got %v", got[0])
	}

	if _, err := InterpolatePair([]float64{1}, []float64{1, 2}, 1, 1, 1); err == nil {
		t.Errorf("expected error for different lengths")
	}
}

func TestLinearToTarget_ZeroGradient(t *testing.T) {
	const days = 10 * DaysPerYear
	daily := DailyToTarget(-25, -25, days)
	if len(daily) != days {
		t.Fatalf("want %v days got %v", days, len(daily))
	}
	if !testUtils.AllEqUpTo(daily, -25, 0) {
		t.Errorf("expected all days to equal -25")
	}
	expanded := LinearToTarget(-25, -25, days, QuartersPerDay)
	if len(expanded) != 10*QuartersPerYear {
		t.Errorf("want %v values got %v", 10*QuartersPerYear, len(expanded))
	}
}

func TestDailyToTarget(t *testing.T) {
	got := DailyToTarget(0.28, 0.38, 4)
	want := []float64{0.305, 0.33, 0.355, 0.38}
	if !testUtils.FloatSliceEqUpTo(got, want, 1e-12) {
		t.Errorf("want %v got %v", want, got)
	}
}

func TestDailySinusoid(t *testing.T) {
	//one cycle per year: quarter year is the maximum
	got := DailySinusoid(1, 450, 550, DaysPerYear)
	if got[0] != 550 {
		t.Errorf("want offset at t=0, got %v", got[0])
	}
	quarter := DailySinusoid(4, 450, 550, DaysPerYear)
	if !testUtils.FloatEqUpTo(quarter[23], 450*math.Sin(4.0/DaysPerYear*2*math.Pi*23)+550, 1e-9) {
		t.Errorf("unexpected value on day 23")
	}
	for i, v := range got {
		if v < 100-1e-9 || v > 1000+1e-9 {
			t.Fatalf("value %v on day %v outside [100,1000]", v, i)
		}
	}
}

func TestRepeat(t *testing.T) {
	got := Repeat([]float64{1, 2}, 3)
	if !testUtils.FloatSliceEqUpTo(got, []float64{1, 1, 1, 2, 2, 2}, 0) {
		t.Errorf("unexpected %v", got)
	}
}

func TestWithDefault(t *testing.T) {
	tests := []struct {
		name    string
		reduced []float64
		want    float64
	}{
		{name: "Round down", reduced: []float64{1, 2, 2}, want: 2},
		{name: "Half to even low", reduced: []float64{2, 3}, want: 2},
		{name: "Half to even high", reduced: []float64{3, 4}, want: 4},
		{name: "Negative", reduced: []float64{-25, -25}, want: -25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithDefault(tt.reduced)
			if len(got) != len(tt.reduced)+1 {
				t.Fatalf("want %v values got %v", len(tt.reduced)+1, len(got))
			}
			if got[0] != tt.want {
				t.Errorf("want default %v got %v", tt.want, got[0])
			}
			if !testUtils.FloatSliceEqUpTo(got[1:], tt.reduced, 0) {
				t.Errorf("reduced values were modified")
			}
		})
	}
}

//yearRamp returns years years of data where every value equals the 0-based year index
func yearRamp(years int) []float64 {
	out := make([]float64, 0, years*QuartersPerYear)
	for y := 0; y < years; y++ {
		for i := 0; i < QuartersPerYear; i++ {
			out = append(out, float64(y))
		}
	}
	return out
}

func TestWeeks_Representative(t *testing.T) {
	series := yearRamp(3)
	//tag the first value of week 5 in every year
	for y := 0; y < 3; y++ {
		series[y*QuartersPerYear+5*QuartersPerWeek] = 100 + float64(y)
	}

	got, err := Weeks{Numbers: []int{5, 5, 5, 5}}.Representative(series)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if len(got) != 4*QuartersPerWeek {
		t.Fatalf("want %v values got %v", 4*QuartersPerWeek, len(got))
	}
	wantFirst := []float64{100, 101, 102, 100}
	wantRest := []float64{0, 1, 2, 0}
	for i := range wantFirst {
		week := got[i*QuartersPerWeek : (i+1)*QuartersPerWeek]
		if week[0] != wantFirst[i] {
			t.Errorf("week %v: want first value %v got %v", i, wantFirst[i], week[0])
		}
		if !testUtils.AllEqUpTo(week[1:], wantRest[i], 0) {
			t.Errorf("week %v: expected values of year %v", i, wantRest[i])
		}
	}
}

func TestWeeks_Average(t *testing.T) {
	series := yearRamp(4)
	got, err := Weeks{Numbers: []int{0, 51}}.Average(series)
	if err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if len(got) != 2*QuartersPerWeek {
		t.Fatalf("want %v values got %v", 2*QuartersPerWeek, len(got))
	}
	//mean of 0,1,2,3
	if !testUtils.AllEqUpTo(got, 1.5, 1e-12) {
		t.Errorf("expected mean over years to be 1.5")
	}
}

func TestWeeks_Errors(t *testing.T) {
	if _, err := (Weeks{Numbers: []int{1}}).Representative(make([]float64, 100)); !errors.Is(err, ErrSeriesTooShort) {
		t.Errorf("want ErrSeriesTooShort got %v", err)
	}
	if _, err := (Weeks{Numbers: []int{52}}).Average(yearRamp(1)); err == nil {
		t.Errorf("expected error for week 52")
	}
	if _, err := (Weeks{}).Average(yearRamp(1)); err == nil {
		t.Errorf("expected error without weeks")
	}
}

func TestGetReducer(t *testing.T) {
	for _, name := range GetAvailableReducers() {
		r, err := GetReducer(name, DefaultWeeks)
		if err != nil {
			t.Fatalf("failed to get reducer %v : %v", name, err)
		}
		got, err := r(yearRamp(2))
		if err != nil {
			t.Fatalf("reducer %v failed : %v", name, err)
		}
		if len(got) != len(DefaultWeeks)*QuartersPerWeek {
			t.Errorf("reducer %v: want %v values got %v", name, len(DefaultWeeks)*QuartersPerWeek, len(got))
		}
	}
	if _, err := GetReducer("unknown", DefaultWeeks); err == nil {
		t.Errorf("expected error for unknown reducer")
	}
}
