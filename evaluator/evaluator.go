//Package evaluator runs every combination of model instance, policy and scenario on a pool of
//isolated model instances and reduces the solver results to outcomes
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"lrcSuite/connector"
	"lrcSuite/experiment"
)

//ExperimentRunner is implemented by *scenario.Transformer and *connector.Connector
type ExperimentRunner interface {
	RunExperiment(ctx context.Context, exp *experiment.Experiment) (connector.Results, error)
}

//Instance is one model instance. An instance never runs two experiments at once
type Instance struct {
	Name   string
	Runner ExperimentRunner
}

//Case is a single experiment of a study
type Case struct {
	ID       uuid.UUID
	Model    string
	Policy   string
	Scenario int
	//Experiment is the scenario merged with the levers of the policy
	Experiment *experiment.Experiment
}

//Result holds the outcomes of a finished case
type Result struct {
	Case     Case
	Scalars  map[string]float64
	Arrays   map[string][]float64
	RunTime  time.Duration
	Finished time.Time
}

//Sink receives every finished case. Save is called concurrently from all workers
type Sink interface {
	Save(ctx context.Context, r Result) error
}

type Options struct {
	//Scalars defaults to DefaultScalarOutcomes, pass an empty slice to disable
	Scalars []ScalarOutcome
	//Arrays defaults to DefaultArrayOutcomes, pass an empty slice to disable
	Arrays []ArrayOutcome
	Sink   Sink
	//Progress is called after each finished case, it must be safe for concurrent use
	Progress func()
	//MaxWorkers limits the number of instances running at the same time, 0 means no limit
	MaxWorkers int
	Logger     *zap.Logger
}

type Evaluator struct {
	scalars  []ScalarOutcome
	arrays   []ArrayOutcome
	sink     Sink
	progress func()
	//maxWorkers <= 0 means no limit
	maxWorkers int
	logger     *zap.Logger
}

func New(opts Options) *Evaluator {
	e := &Evaluator{
		scalars:    opts.Scalars,
		arrays:     opts.Arrays,
		sink:       opts.Sink,
		progress:   opts.Progress,
		maxWorkers: opts.MaxWorkers,
		logger:     opts.Logger,
	}
	if e.scalars == nil {
		e.scalars = DefaultScalarOutcomes()
	}
	if e.arrays == nil {
		e.arrays = DefaultArrayOutcomes()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

//Cases builds the full factorial design ordered by instance, policy and scenario
func Cases(instances []Instance, policies []Policy, scenarios []*experiment.Experiment) []Case {
	cases := make([]Case, 0, len(instances)*len(policies)*len(scenarios))
	for _, inst := range instances {
		for _, p := range policies {
			for scenarioIDX, s := range scenarios {
				exp := s.Clone()
				exp.Merge(p.Levers)
				cases = append(cases, Case{
					ID:         uuid.New(),
					Model:      inst.Name,
					Policy:     p.Name,
					Scenario:   scenarioIDX,
					Experiment: exp,
				})
			}
		}
	}
	return cases
}

//Perform runs all cases. Every instance gets its own worker, the first error stops all workers.
//The results are in the order of Cases
func (e *Evaluator) Perform(ctx context.Context, instances []Instance, policies []Policy, scenarios []*experiment.Experiment) ([]Result, error) {
	if len(instances) == 0 || len(policies) == 0 || len(scenarios) == 0 {
		return nil, fmt.Errorf("need at least one instance, policy and scenario, got %v, %v and %v",
			len(instances), len(policies), len(scenarios))
	}
	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if seen[inst.Name] {
			return nil, fmt.Errorf("duplicate instance name %q", inst.Name)
		}
		seen[inst.Name] = true
	}

	cases := Cases(instances, policies, scenarios)
	//DO NOT CHANGE SIZE, workers write to their own indices
	results := make([]Result, len(cases))
	casesPerInstance := len(policies) * len(scenarios)
	e.logger.Info("starting evaluation", zap.Int("instances", len(instances)), zap.Int("policies", len(policies)),
		zap.Int("scenarios", len(scenarios)), zap.Int("cases", len(cases)))

	workers, ctx := errgroup.WithContext(ctx)
	if e.maxWorkers > 0 {
		workers.SetLimit(e.maxWorkers)
	}
	for instanceIDX, inst := range instances {
		inst := inst
		start := instanceIDX * casesPerInstance
		end := start + casesPerInstance
		workers.Go(func() error {
			for idx := start; idx < end; idx++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := e.runCase(ctx, inst.Runner, cases[idx])
				if err != nil {
					return err
				}
				results[idx] = res
			}
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation aborted : %w", err)
	}
	return results, nil
}

func (e *Evaluator) runCase(ctx context.Context, runner ExperimentRunner, c Case) (Result, error) {
	logger := e.logger.With(zap.String("model", c.Model), zap.String("policy", c.Policy), zap.Int("scenario", c.Scenario))
	res, err := runner.RunExperiment(ctx, c.Experiment)
	if err != nil {
		return Result{}, fmt.Errorf("case %v (model %v, policy %v, scenario %v) failed : %w", c.ID, c.Model, c.Policy, c.Scenario, err)
	}
	scalars, arrays, err := reduceOutcomes(res, e.scalars, e.arrays)
	if err != nil {
		return Result{}, fmt.Errorf("case %v : %w", c.ID, err)
	}
	r := Result{
		Case:     c,
		Scalars:  scalars,
		Arrays:   arrays,
		Finished: time.Now(),
	}
	if runTime, ok := res.RunTime(); ok {
		r.RunTime = runTime
	}
	if e.sink != nil {
		if err := e.sink.Save(ctx, r); err != nil {
			return Result{}, fmt.Errorf("failed to store case %v : %w", c.ID, err)
		}
	}
	logger.Debug("case done", zap.Duration("run_time", r.RunTime))
	if e.progress != nil {
		e.progress()
	}
	return r, nil
}
