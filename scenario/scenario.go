//Package scenario rewrites sampled experiments of the Botlek cluster study into solver input: scalar
//factors and future values become characteristic-week series and boolean levers become variable bounds
package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"lrcSuite/connector"
	"lrcSuite/experiment"
	"lrcSuite/timeSeries"
)

var (
	ErrMissingLever    = errors.New("lever missing in experiment")
	ErrUnexpectedValue = errors.New("unexpected value kind")
)

//Role decides how a variable of an experiment is transformed
type Role int

const (
	//RolePassThrough variables are handed to the solver unchanged
	RolePassThrough Role = iota
	//RoleReferenceSeries variables carry a scaling factor for a reference series
	RoleReferenceSeries
	//RoleDayAhead carries the scaling factor of the target day-ahead price forecast
	RoleDayAhead
	//RoleFutureValue variables carry the value at the end of the horizon
	RoleFutureValue
	//RoleCyclical carries the number of price cycles per year
	RoleCyclical
	//RoleConstant variables are scalars the solver takes as they are
	RoleConstant
	//RoleLever variables are booleans replaced by bounds
	RoleLever
)

func (r Role) String() string {
	switch r {
	case RolePassThrough:
		return "pass-through"
	case RoleReferenceSeries:
		return "reference series"
	case RoleDayAhead:
		return "day-ahead"
	case RoleFutureValue:
		return "future value"
	case RoleCyclical:
		return "cyclical"
	case RoleConstant:
		return "constant"
	case RoleLever:
		return "lever"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

//ExperimentRunner is implemented by *connector.Connector
type ExperimentRunner interface {
	RunExperiment(ctx context.Context, exp *experiment.Experiment) (connector.Results, error)
}

//Options configures a Transformer. The series are not copied and must not be modified afterwards
type Options struct {
	//Horizon in years
	Horizon int
	//ReferenceSeries maps variables to one year of quarter-hour values
	ReferenceSeries map[string][]float64

	DayAheadKey string
	//DayAheadBaseline and DayAheadTarget hold one year of hourly prices
	DayAheadBaseline []float64
	DayAheadTarget   []float64
	//DayAheadRepeat expands each hourly value, defaults to timeSeries.QuartersPerHour
	DayAheadRepeat int

	//CurrentValues anchors future value variables at the start of the horizon
	CurrentValues map[string]float64
	//Negated future value variables are modelled as negative values by the solver
	Negated []string

	CyclicalKey string
	Amplitude   float64
	Offset      float64

	Constants []string
	//Levers defaults to DefaultLevers
	Levers map[string]LeverTable

	//Reducer defaults to the representative characteristic weeks of timeSeries.DefaultWeeks
	Reducer timeSeries.Reducer
	//CyclicalReducer defaults to the week average of timeSeries.DefaultWeeks
	CyclicalReducer timeSeries.Reducer

	Logger *zap.Logger
}

//Transformer rewrites experiments and passes them on to the wrapped runner
type Transformer struct {
	opts    Options
	roles   map[string]Role
	negated map[string]bool
	next    ExperimentRunner
	logger  *zap.Logger
}

//New resolves the role of every configured variable. If a variable is configured for more than one role
//the first of reference series, day-ahead, future value, cyclical, constant and lever wins
func New(next ExperimentRunner, opts Options) (*Transformer, error) {
	if opts.Horizon < 1 {
		return nil, fmt.Errorf("horizon must be at least one year, got %v", opts.Horizon)
	}
	if opts.DayAheadKey != "" && len(opts.DayAheadBaseline) != len(opts.DayAheadTarget) {
		return nil, fmt.Errorf("day-ahead baseline has %v values but target has %v", len(opts.DayAheadBaseline), len(opts.DayAheadTarget))
	}
	if opts.DayAheadRepeat == 0 {
		opts.DayAheadRepeat = timeSeries.QuartersPerHour
	}
	if opts.Levers == nil {
		opts.Levers = DefaultLevers()
	}
	if opts.Reducer == nil {
		opts.Reducer = timeSeries.Weeks{Numbers: timeSeries.DefaultWeeks}.Representative
	}
	if opts.CyclicalReducer == nil {
		opts.CyclicalReducer = timeSeries.Weeks{Numbers: timeSeries.DefaultWeeks}.Average
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	t := &Transformer{
		opts:    opts,
		roles:   make(map[string]Role),
		negated: make(map[string]bool, len(opts.Negated)),
		next:    next,
		logger:  opts.Logger,
	}
	assign := func(key string, r Role) {
		if key == "" {
			return
		}
		if _, taken := t.roles[key]; !taken {
			t.roles[key] = r
		}
	}
	for key := range opts.ReferenceSeries {
		assign(key, RoleReferenceSeries)
	}
	assign(opts.DayAheadKey, RoleDayAhead)
	for key := range opts.CurrentValues {
		assign(key, RoleFutureValue)
	}
	assign(opts.CyclicalKey, RoleCyclical)
	for _, key := range opts.Constants {
		assign(key, RoleConstant)
	}
	for key := range opts.Levers {
		assign(key, RoleLever)
	}
	for _, key := range opts.Negated {
		t.negated[key] = true
	}
	return t, nil
}

//Role returns how key is transformed
func (t *Transformer) Role(key string) Role {
	return t.roles[key]
}

//Transform returns a rewritten deep copy of exp, exp itself is left untouched
func (t *Transformer) Transform(exp *experiment.Experiment) (*experiment.Experiment, error) {
	out := exp.Clone()
	overrides := experiment.New()
	seenLevers := make(map[string]bool, len(t.opts.Levers))

	for _, key := range out.Keys() {
		role := t.roles[key]
		if role == RolePassThrough || role == RoleConstant {
			continue
		}
		v, _ := out.Get(key)

		if role == RoleLever {
			on, ok := v.Truth()
			if !ok {
				return nil, fmt.Errorf("%w : lever %v holds a %v", ErrUnexpectedValue, key, v.Kind())
			}
			for _, b := range t.opts.Levers[key].Bounds(on) {
				overrides.Set(b.Key, experiment.Scalar(b.Value))
			}
			seenLevers[key] = true
			continue
		}

		x, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w : %v variable %v holds a %v", ErrUnexpectedValue, role, key, v.Kind())
		}
		series, err := t.expand(key, role, x)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %v : %w", key, err)
		}
		t.logger.Debug("expanded variable", zap.String("key", key), zap.Stringer("role", role),
			zap.Float64("value", x), zap.Float64("default", series[0]), zap.Int("length", len(series)))
		out.Set(key, experiment.Series(series))
	}

	for lever := range t.opts.Levers {
		if !seenLevers[lever] {
			return nil, fmt.Errorf("%w : %v", ErrMissingLever, lever)
		}
		out.Delete(lever)
	}
	out.Merge(overrides)
	return out, nil
}

//expand turns the scalar x of key into the reduced series with its default value in front
func (t *Transformer) expand(key string, role Role, x float64) ([]float64, error) {
	days := t.opts.Horizon * timeSeries.DaysPerYear
	reducer := t.opts.Reducer
	var full []float64

	switch role {
	case RoleReferenceSeries:
		full = timeSeries.ScaleLinear(t.opts.ReferenceSeries[key], x, t.opts.Horizon)
	case RoleDayAhead:
		var err error
		full, err = timeSeries.InterpolatePair(t.opts.DayAheadBaseline, t.opts.DayAheadTarget, x, t.opts.Horizon, t.opts.DayAheadRepeat)
		if err != nil {
			return nil, err
		}
	case RoleFutureValue:
		current, future := t.opts.CurrentValues[key], x
		if t.negated[key] {
			current, future = -current, -future
		}
		full = timeSeries.LinearToTarget(current, future, days, timeSeries.QuartersPerDay)
	case RoleCyclical:
		full = timeSeries.Sinusoid(x, t.opts.Amplitude, t.opts.Offset, days, timeSeries.QuartersPerDay)
		reducer = t.opts.CyclicalReducer
	default:
		return nil, fmt.Errorf("role %v cannot be expanded", role)
	}

	reduced, err := reducer(full)
	if err != nil {
		return nil, err
	}
	return timeSeries.WithDefault(reduced), nil
}

//RunExperiment transforms exp and runs the result on the wrapped runner
func (t *Transformer) RunExperiment(ctx context.Context, exp *experiment.Experiment) (connector.Results, error) {
	transformed, err := t.Transform(exp)
	if err != nil {
		return nil, err
	}
	return t.next.RunExperiment(ctx, transformed)
}
