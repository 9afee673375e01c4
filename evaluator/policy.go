package evaluator

import (
	"lrcSuite/experiment"
	"lrcSuite/scenario"
)

//Policy is a named combination of lever values
type Policy struct {
	Name   string
	Levers *experiment.Experiment
}

//NewPolicy creates a policy for the steam pipe, e-boiler and chlorine storage levers
func NewPolicy(name string, steamPipe, eBoiler, chlorineStorage bool) Policy {
	levers := experiment.New()
	levers.Set(scenario.LeverSteamPipe, experiment.Bool(steamPipe))
	levers.Set(scenario.LeverEBoiler, experiment.Bool(eBoiler))
	levers.Set(scenario.LeverChlorineStorage, experiment.Bool(chlorineStorage))
	return Policy{Name: name, Levers: levers}
}

//FullFactorial returns all eight combinations of the three design alternatives
func FullFactorial() []Policy {
	return []Policy{
		NewPolicy("None of the options", false, false, false),
		NewPolicy("Only Steam Pipe", true, false, false),
		NewPolicy("Only E-boiler", false, true, false),
		NewPolicy("Only Chlorine storage", false, false, true),
		NewPolicy("Steam Pipe & E-boiler", true, true, false),
		NewPolicy("Steam Pipe & Chlorine storage", true, false, true),
		NewPolicy("E-boiler & Chlorine storage", false, true, true),
		NewPolicy("All options", true, true, true),
	}
}
