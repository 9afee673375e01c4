package evaluator

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"lrcSuite/connector"
	"lrcSuite/experiment"
	"lrcSuite/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

//fakeInstance returns the sum of all scalar inputs as "CF total" and fails if it is entered concurrently
type fakeInstance struct {
	inFlight   int32
	overlapped int32
	calls      int32
	failAt     int32
}

func (f *fakeInstance) RunExperiment(ctx context.Context, exp *experiment.Experiment) (connector.Results, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		atomic.StoreInt32(&f.overlapped, 1)
	}
	defer atomic.AddInt32(&f.inFlight, -1)
	call := atomic.AddInt32(&f.calls, 1)
	if f.failAt > 0 && call == f.failAt {
		return nil, errors.New("solver crashed")
	}
	time.Sleep(time.Millisecond)

	total := 0.0
	exp.Range(func(_ string, v experiment.Value) bool {
		if x, ok := v.Float(); ok {
			total += x
		}
		return true
	})
	steamPipe, _ := exp.Get(scenario.LeverSteamPipe)
	on, _ := steamPipe.Truth()
	stock := 1600.0
	if on {
		stock = 3200
	}
	return connector.Results{
		"CF total":           {total, math.NaN()},
		"Chlorine storage":   {stock, stock},
		connector.RunTimeKey: {0.25},
	}, nil
}

type memorySink struct {
	mux     sync.Mutex
	results []Result
}

func (s *memorySink) Save(_ context.Context, r Result) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.results = append(s.results, r)
	return nil
}

func testScenarios(t *testing.T) []*experiment.Experiment {
	t.Helper()
	a, err := experiment.FromScalars([]string{"x", "y"}, []float64{1, 2})
	require.NoError(t, err)
	b, err := experiment.FromScalars([]string{"x", "y"}, []float64{10, 20})
	require.NoError(t, err)
	return []*experiment.Experiment{a, b}
}

func testOutcomes() Options {
	return Options{
		Scalars: []ScalarOutcome{{Name: "cash flow", Variable: "CF total"}},
		Arrays:  []ArrayOutcome{{Name: "stock", Variable: "Chlorine storage"}},
	}
}

func TestFullFactorial(t *testing.T) {
	policies := FullFactorial()
	require.Len(t, policies, 8)
	names := make(map[string]bool)
	combinations := make(map[string]bool)
	for _, p := range policies {
		names[p.Name] = true
		var key strings.Builder
		for _, lever := range []string{scenario.LeverSteamPipe, scenario.LeverEBoiler, scenario.LeverChlorineStorage} {
			v, ok := p.Levers.Get(lever)
			require.True(t, ok, "policy %v lacks %v", p.Name, lever)
			key.WriteString(v.String())
		}
		combinations[key.String()] = true
	}
	assert.Len(t, names, 8)
	assert.Len(t, combinations, 8)
}

func TestCases(t *testing.T) {
	instances := []Instance{{Name: "a"}, {Name: "b"}}
	policies := FullFactorial()[:2]
	scenarios := testScenarios(t)
	cases := Cases(instances, policies, scenarios)
	require.Len(t, cases, 8)

	assert.Equal(t, "a", cases[0].Model)
	assert.Equal(t, policies[0].Name, cases[0].Policy)
	assert.Equal(t, 1, cases[1].Scenario)
	assert.Equal(t, policies[1].Name, cases[2].Policy)
	assert.Equal(t, "b", cases[4].Model)

	ids := make(map[string]bool)
	for _, c := range cases {
		ids[c.ID.String()] = true
	}
	assert.Len(t, ids, len(cases))

	//scenario values first, levers appended
	assert.Equal(t, []string{"x", "y", scenario.LeverSteamPipe, scenario.LeverEBoiler, scenario.LeverChlorineStorage}, cases[0].Experiment.Keys())
	//scenarios are not modified
	assert.Equal(t, 2, scenarios[0].Len())
}

func TestPerform(t *testing.T) {
	fakes := []*fakeInstance{{}, {}, {}}
	instances := make([]Instance, len(fakes))
	for i, f := range fakes {
		instances[i] = Instance{Name: string(rune('a' + i)), Runner: f}
	}
	sink := &memorySink{}
	var progress int32
	opts := testOutcomes()
	opts.Sink = sink
	opts.Progress = func() { atomic.AddInt32(&progress, 1) }

	results, err := New(opts).Perform(context.Background(), instances, FullFactorial(), testScenarios(t))
	require.NoError(t, err)

	wantCases := len(instances) * 8 * 2
	require.Len(t, results, wantCases)
	assert.Len(t, sink.results, wantCases)
	assert.Equal(t, int32(wantCases), atomic.LoadInt32(&progress))
	for i, f := range fakes {
		assert.Equal(t, int32(16), f.calls, "instance %v", i)
		assert.Zero(t, f.overlapped, "instance %v ran experiments concurrently", i)
	}

	for _, r := range results {
		want := 3.0
		if r.Case.Scenario == 1 {
			want = 30
		}
		assert.Equal(t, want, r.Scalars["cash flow"], "case %+v", r.Case)
		assert.Equal(t, 250*time.Millisecond, r.RunTime)
		require.Len(t, r.Arrays["stock"], 2)
		if strings.Contains(r.Case.Policy, "Steam Pipe") {
			assert.Equal(t, 3200.0, r.Arrays["stock"][0])
		}
	}

	models := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range sink.results {
		if !seen[r.Case.Model] {
			seen[r.Case.Model] = true
			models = append(models, r.Case.Model)
		}
	}
	sort.Strings(models)
	assert.Equal(t, []string{"a", "b", "c"}, models)
}

func TestPerform_FirstErrorAborts(t *testing.T) {
	failing := &fakeInstance{failAt: 3}
	instances := []Instance{{Name: "ok", Runner: &fakeInstance{}}, {Name: "failing", Runner: failing}}
	_, err := New(testOutcomes()).Perform(context.Background(), instances, FullFactorial(), testScenarios(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver crashed")
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, int32(3), failing.calls)
}

func TestPerform_MissingOutcome(t *testing.T) {
	opts := testOutcomes()
	opts.Scalars = append(opts.Scalars, ScalarOutcome{Name: "emissions", Variable: "CO2 emission"})
	_, err := New(opts).Perform(context.Background(), []Instance{{Name: "a", Runner: &fakeInstance{}}}, FullFactorial(), testScenarios(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CO2 emission")
}

func TestPerform_Validation(t *testing.T) {
	e := New(testOutcomes())
	_, err := e.Perform(context.Background(), nil, FullFactorial(), testScenarios(t))
	assert.Error(t, err)
	dup := []Instance{{Name: "a", Runner: &fakeInstance{}}, {Name: "a", Runner: &fakeInstance{}}}
	_, err = e.Perform(context.Background(), dup, FullFactorial(), testScenarios(t))
	assert.Error(t, err)
}

func TestPerform_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeInstance{}
	_, err := New(testOutcomes()).Perform(ctx, []Instance{{Name: "a", Runner: f}}, FullFactorial(), testScenarios(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]float64{1, 2, math.NaN(), 3}))
	assert.Equal(t, 0.0, Sum(nil))
}

func TestSampleLatinHypercube(t *testing.T) {
	uncertainties := DefaultUncertainties()
	const n = 20
	scenarios, err := SampleLatinHypercube(uncertainties, n, 42)
	require.NoError(t, err)
	require.Len(t, scenarios, n)

	for _, u := range uncertainties {
		strata := make(map[int]bool, n)
		width := (u.Upper - u.Lower) / n
		for _, s := range scenarios {
			v, ok := s.Get(u.Variable)
			require.True(t, ok)
			x, _ := v.Float()
			require.True(t, x >= u.Lower && x <= u.Upper, "%v out of range: %v", u.Variable, x)
			stratum := int((x - u.Lower) / width)
			if stratum == n {
				stratum--
			}
			strata[stratum] = true
		}
		assert.Len(t, strata, n, "%v does not cover every stratum once", u.Variable)
	}

	again, err := SampleLatinHypercube(uncertainties, n, 42)
	require.NoError(t, err)
	for i := range scenarios {
		a, _ := scenarios[i].Get("H2 markt:Price")
		b, _ := again[i].Get("H2 markt:Price")
		assert.Equal(t, a.String(), b.String())
	}

	_, err = SampleLatinHypercube(uncertainties, 0, 1)
	assert.Error(t, err)
	_, err = SampleLatinHypercube([]Uncertainty{{Name: "empty", Lower: 1, Upper: 1}}, 3, 1)
	assert.Error(t, err)
}

func TestReadScenarios(t *testing.T) {
	scenarios, err := ReadScenarios(strings.NewReader("E day-ahead:Price, H2 markt:Price\n1.1,0.2\n0.9, 0.25\n"))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, []string{"E day-ahead:Price", "H2 markt:Price"}, scenarios[1].Keys())
	v, _ := scenarios[1].Get("H2 markt:Price")
	assert.Equal(t, "0.25", v.String())

	_, err = ReadScenarios(strings.NewReader("a,b\n1,x\n"))
	assert.Error(t, err)
	_, err = ReadScenarios(strings.NewReader("a,b\n"))
	assert.Error(t, err)
}
