package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"lrcSuite/connector"
	"lrcSuite/experiment"
	"lrcSuite/mocks/solver"
	"lrcSuite/testUtils"
	"lrcSuite/timeSeries"
)

const (
	testHorizon = 2
	co2Key      = "CO2 EUROPEAN EMISSION ALLOWANCES:Price"
	gasKey      = "natural gas market:Price"
	naohKey     = "NaOH 50%:Price"
	dayAheadKey = "E day-ahead:Price"
	upwardKey   = "Unbal opregelen:Price"
	capexKey    = "Capex E-boiler:Price"
)

//reducedLen is the length of a transformed series, the default value plus ten characteristic weeks
const reducedLen = 1 + 10*timeSeries.QuartersPerWeek

type recordingRunner struct {
	got *experiment.Experiment
}

func (r *recordingRunner) RunExperiment(_ context.Context, exp *experiment.Experiment) (connector.Results, error) {
	r.got = exp
	return connector.Results{"CF total": {1, 2}}, nil
}

func testOptions() Options {
	return Options{
		Horizon: testHorizon,
		ReferenceSeries: map[string][]float64{
			upwardKey: testUtils.DRNGFloat64SliceInRange(timeSeries.QuartersPerYear, 1, -200, 400),
		},
		DayAheadKey:      dayAheadKey,
		DayAheadBaseline: testUtils.DRNGFloat64SliceInRange(timeSeries.QuartersPerYear/timeSeries.QuartersPerHour, 2, 20, 80),
		DayAheadTarget:   testUtils.DRNGFloat64SliceInRange(timeSeries.QuartersPerYear/timeSeries.QuartersPerHour, 3, 30, 120),
		CurrentValues:    map[string]float64{gasKey: 0.28, co2Key: 25},
		Negated:          []string{co2Key},
		CyclicalKey:      naohKey,
		Amplitude:        450,
		Offset:           550,
		Constants:        []string{capexKey},
	}
}

func sampledExperiment(steamPipe, eBoiler, chlorineStorage bool) *experiment.Experiment {
	exp := experiment.New()
	exp.Set(dayAheadKey, experiment.Scalar(1.1))
	exp.Set(gasKey, experiment.Scalar(0.2))
	exp.Set(co2Key, experiment.Scalar(25))
	exp.Set(naohKey, experiment.Scalar(0.2))
	exp.Set(upwardKey, experiment.Scalar(1.15))
	exp.Set(capexKey, experiment.Scalar(1.7e6))
	exp.Set(LeverEBoiler, experiment.Bool(eBoiler))
	exp.Set(LeverSteamPipe, experiment.Bool(steamPipe))
	exp.Set(LeverChlorineStorage, experiment.Bool(chlorineStorage))
	return exp
}

func newTestTransformer(t *testing.T, next ExperimentRunner) *Transformer {
	t.Helper()
	tr, err := New(next, testOptions())
	require.NoError(t, err)
	return tr
}

func TestDefaultLevers_SameKeysForBothStates(t *testing.T) {
	for name, table := range DefaultLevers() {
		keys := func(bounds []Bound) []string {
			out := make([]string, len(bounds))
			for i, b := range bounds {
				out[i] = b.Key
			}
			sort.Strings(out)
			return out
		}
		if diff := cmp.Diff(keys(table.True), keys(table.False)); diff != "" {
			t.Errorf("lever %v has different keys per state (-true +false):\n%s", name, diff)
		}
	}
}

func TestNew_Roles(t *testing.T) {
	opts := testOptions()
	//upwardKey is also listed as constant, reference series takes precedence
	opts.Constants = append(opts.Constants, upwardKey)
	tr, err := New(nil, opts)
	require.NoError(t, err)

	tests := []struct {
		key  string
		want Role
	}{
		{upwardKey, RoleReferenceSeries},
		{dayAheadKey, RoleDayAhead},
		{gasKey, RoleFutureValue},
		{co2Key, RoleFutureValue},
		{naohKey, RoleCyclical},
		{capexKey, RoleConstant},
		{LeverEBoiler, RoleLever},
		{"something else", RolePassThrough},
	}
	for _, tt := range tests {
		if got := tr.Role(tt.key); got != tt.want {
			t.Errorf("%v: want %v got %v", tt.key, tt.want, got)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	opts := testOptions()
	opts.Horizon = 0
	if _, err := New(nil, opts); err == nil {
		t.Errorf("expected error for zero horizon")
	}
	opts = testOptions()
	opts.DayAheadTarget = opts.DayAheadTarget[:10]
	if _, err := New(nil, opts); err == nil {
		t.Errorf("expected error for day-ahead length mismatch")
	}
}

func TestTransform_SteamPipeScenario(t *testing.T) {
	tr := newTestTransformer(t, nil)
	got, err := tr.Transform(sampledExperiment(true, false, false))
	require.NoError(t, err)

	for _, lever := range []string{LeverSteamPipe, LeverEBoiler, LeverChlorineStorage} {
		if got.Has(lever) {
			t.Errorf("lever %v still present", lever)
		}
	}
	want := map[string]float64{
		"Financiering Steam Pipe (Steam pipe owner):LB":      1,
		"Option: transport to Nouryon (Steam pipe owner):UB": 7.5,
		"by-pass aFRR (ghost actor):UB":                      5,
		"Cogen B Brander (Air Liquide):UB":                   32.5,
		"stored CL2 (Nouryon):InSt":                          1600,
	}
	for key, wantValue := range want {
		v, ok := got.Get(key)
		if !ok {
			t.Errorf("%v missing", key)
			continue
		}
		if x, _ := v.Float(); x != wantValue {
			t.Errorf("%v: want %v got %v", key, wantValue, x)
		}
	}
}

func TestTransform_LeverStatesProduceSameKeys(t *testing.T) {
	tr := newTestTransformer(t, nil)
	on, err := tr.Transform(sampledExperiment(true, true, true))
	require.NoError(t, err)
	off, err := tr.Transform(sampledExperiment(false, false, false))
	require.NoError(t, err)
	if diff := cmp.Diff(on.Keys(), off.Keys()); diff != "" {
		t.Errorf("key sets differ (-on +off):\n%s", diff)
	}
}

func TestTransform_ScalarLeverValues(t *testing.T) {
	tr := newTestTransformer(t, nil)
	exp := sampledExperiment(false, false, false)
	exp.Set(LeverChlorineStorage, experiment.Scalar(1))
	exp.Set(LeverSteamPipe, experiment.Scalar(2))
	got, err := tr.Transform(exp)
	require.NoError(t, err)

	if v, _ := got.Get("stored CL2 (Nouryon):UB"); v.String() != "3200" {
		t.Errorf("scalar 1 must enable the lever, got %v", v)
	}
	if v, _ := got.Get("Financiering Steam Pipe (Steam pipe owner):UB"); v.String() != "0" {
		t.Errorf("scalar 2 must not enable the lever, got %v", v)
	}
}

func TestTransform_SeriesShapes(t *testing.T) {
	tr := newTestTransformer(t, nil)
	got, err := tr.Transform(sampledExperiment(false, false, false))
	require.NoError(t, err)

	for _, key := range []string{dayAheadKey, gasKey, co2Key, naohKey, upwardKey} {
		v, _ := got.Get(key)
		values, ok := v.Values()
		if !ok {
			t.Errorf("%v: want series got %v", key, v.Kind())
			continue
		}
		if len(values) != reducedLen {
			t.Errorf("%v: want %v values got %v", key, reducedLen, len(values))
		}
		if want := timeSeries.RoundedMean(values[1:]); values[0] != want {
			t.Errorf("%v: want default %v got %v", key, want, values[0])
		}
	}
	if v, _ := got.Get(capexKey); v.String() != "1700000" {
		t.Errorf("constant changed to %v", v)
	}
}

func TestTransform_NegatedZeroGradient(t *testing.T) {
	tr := newTestTransformer(t, nil)
	got, err := tr.Transform(sampledExperiment(false, false, false))
	require.NoError(t, err)

	v, _ := got.Get(co2Key)
	values, _ := v.Values()
	if !testUtils.AllEqUpTo(values, -25, 1e-9) {
		t.Errorf("expected constant -25 series, first values %v", values[:3])
	}
}

func TestTransform_IdentityFactorReproducesReference(t *testing.T) {
	opts := testOptions()
	tr, err := New(nil, opts)
	require.NoError(t, err)
	exp := sampledExperiment(false, false, false)
	exp.Set(upwardKey, experiment.Scalar(1))
	got, err := tr.Transform(exp)
	require.NoError(t, err)

	base := opts.ReferenceSeries[upwardKey]
	v, _ := got.Get(upwardKey)
	values, _ := v.Values()
	for i, week := range timeSeries.DefaultWeeks {
		want := base[week*timeSeries.QuartersPerWeek : (week+1)*timeSeries.QuartersPerWeek]
		start := 1 + i*timeSeries.QuartersPerWeek
		if !testUtils.FloatSliceEqUpTo(values[start:start+timeSeries.QuartersPerWeek], want, 1e-9) {
			t.Errorf("week %v differs from reference data", week)
		}
	}
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	tr := newTestTransformer(t, nil)
	exp := sampledExperiment(true, true, false)
	before := exp.Clone()
	if _, err := tr.Transform(exp); err != nil {
		t.Fatalf("unexpected error : %v", err)
	}
	if diff := cmp.Diff(before.Keys(), exp.Keys()); diff != "" {
		t.Errorf("keys of input changed:\n%s", diff)
	}
	if v, _ := exp.Get(gasKey); v.Kind() != experiment.KindScalar {
		t.Errorf("input value was replaced by %v", v.Kind())
	}
}

func TestTransform_OverridesWin(t *testing.T) {
	tr := newTestTransformer(t, nil)
	exp := sampledExperiment(false, false, true)
	exp.Set("stored CL2 (Nouryon):UB", experiment.Scalar(42))
	got, err := tr.Transform(exp)
	require.NoError(t, err)
	if v, _ := got.Get("stored CL2 (Nouryon):UB"); v.String() != "3200" {
		t.Errorf("want lever bound 3200 got %v", v)
	}
}

func TestTransform_Errors(t *testing.T) {
	tr := newTestTransformer(t, nil)

	missing := sampledExperiment(false, false, false)
	missing.Delete(LeverEBoiler)
	if _, err := tr.Transform(missing); !errors.Is(err, ErrMissingLever) {
		t.Errorf("want ErrMissingLever got %v", err)
	}

	wrongKind := sampledExperiment(false, false, false)
	wrongKind.Set(gasKey, experiment.Series([]float64{1, 2}))
	if _, err := tr.Transform(wrongKind); !errors.Is(err, ErrUnexpectedValue) {
		t.Errorf("want ErrUnexpectedValue got %v", err)
	}

	seriesLever := sampledExperiment(false, false, false)
	seriesLever.Set(LeverSteamPipe, experiment.Series([]float64{1}))
	if _, err := tr.Transform(seriesLever); !errors.Is(err, ErrUnexpectedValue) {
		t.Errorf("want ErrUnexpectedValue got %v", err)
	}
}

func TestTransformer_RunExperimentDelegates(t *testing.T) {
	next := &recordingRunner{}
	tr := newTestTransformer(t, next)
	res, err := tr.RunExperiment(context.Background(), sampledExperiment(true, false, false))
	require.NoError(t, err)
	if !testUtils.FloatSliceEqUpTo(res["CF total"], []float64{1, 2}, 0) {
		t.Errorf("unexpected results %v", res)
	}
	if next.got == nil || next.got.Has(LeverSteamPipe) {
		t.Errorf("wrapped runner did not receive the transformed experiment")
	}
}

func TestTransformer_WithConnector(t *testing.T) {
	fake := &solver.Solver{}
	c, err := connector.New(connector.Options{
		WorkingDir: t.TempDir(),
		ModelFile:  "botlek_model_nouryon_week_3.lnr",
		Executable: "lrc",
		Runner:     fake,
	})
	require.NoError(t, err)
	tr := newTestTransformer(t, c)

	res, err := tr.RunExperiment(context.Background(), sampledExperiment(false, false, true))
	require.NoError(t, err)
	if !testUtils.AllEqUpTo(res["Chlorine storage"], 3200, 0) {
		t.Errorf("unexpected chlorine storage %v", res["Chlorine storage"])
	}
	input := fake.LastInput()
	if got := len(input.Values[naohKey]); got != reducedLen {
		t.Errorf("want %v rows of NaOH price got %v", reducedLen, got)
	}
	if got := input.Values[capexKey]; got[0] != 1.7e6 || len(got) != reducedLen {
		t.Errorf("constant must fill the first row only, got %v ... (%v rows)", got[0], len(got))
	}
}

func TestLoadReferenceSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imbalance.csv")
	content := "invoeden_EURMWh,afnemen_EURMWh\n1.5,2\n3,-4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadReferenceSeries(ReferenceSource{
		Path: path,
		Columns: map[string]string{
			upwardKey:               "invoeden_EURMWh",
			"Unbal afregelen:Price": "afnemen_EURMWh",
		},
	})
	require.NoError(t, err)
	if !testUtils.FloatSliceEqUpTo(got[upwardKey], []float64{1.5, 3}, 0) {
		t.Errorf("unexpected series %v", got[upwardKey])
	}
	if !testUtils.FloatSliceEqUpTo(got["Unbal afregelen:Price"], []float64{2, -4}, 0) {
		t.Errorf("unexpected series %v", got["Unbal afregelen:Price"])
	}

	if _, err := LoadReferenceSeries(ReferenceSource{Path: filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestLoadDayAhead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "da.csv")
	require.NoError(t, os.WriteFile(path, []byte("Data_2019,Data_2030\n40,60\n41,61\n"), 0o644))
	baseline, target, err := LoadDayAhead(path, ',', "Data_2019", "Data_2030")
	require.NoError(t, err)
	if !testUtils.FloatSliceEqUpTo(baseline, []float64{40, 41}, 0) || !testUtils.FloatSliceEqUpTo(target, []float64{60, 61}, 0) {
		t.Errorf("unexpected columns %v %v", baseline, target)
	}
}
