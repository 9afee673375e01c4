package evaluator

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"lrcSuite/experiment"
)

//Uncertainty is a real valued model input sampled uniformly from [Lower,Upper]
type Uncertainty struct {
	Name     string
	Variable string
	Lower    float64
	Upper    float64
}

//DefaultUncertainties returns the uncertain factors of the Botlek study
func DefaultUncertainties() []Uncertainty {
	return []Uncertainty{
		{"Scaling factor day-ahead electricity price (-)", "E day-ahead:Price", 0.7, 1.3},
		{"Gas price in 2030 (euro/Nm3)", "natural gas market:Price", 0.16, 0.32},
		{"CO2 emission price in 2030 (euro/ton)", "CO2 EUROPEAN EMISSION ALLOWANCES:Price", 21, 150},
		{"Hydrogen price in 2030 (euro/Nm3)", "H2 markt:Price", 0.12, 0.30},
		{"Cyclical frequency of NaOH 50% price (cycle/year)", "NaOH 50%:Price", 0.1, 0.3},
		{"Scaling factor upward balancing electricity price (-)", "Unbal opregelen:Price", 0.7, 1.3},
		{"Scaling factor downward balancing electricity price (-)", "Unbal afregelen:Price", 0.7, 1.3},
		{"Scaling factor electricity supply imbalance market (-)", "Unbal afregelen:LB", 0.7, 1.3},
		{"Scaling factor electricity demand imbalance market (-)", "Unbal opregelen:UB", 0.7, 1.3},
		{"E-boiler CAPEX (euro/MW)", "Capex E-boiler:Price", 1.4e6, 2.0e6},
		{"E-boiler OPEX (euro/MW/year)", "OPEX E-BOILER:Price", 2.8e3, 4.0e3},
		{"Steam Pipe CAPEX (euro)", "CAPEX Steam Pipe:Price", 6.0e6, 12.0e6},
	}
}

//SampleLatinHypercube draws n scenarios. The range of every uncertainty is split into n strata of equal width
//and every stratum is used by exactly one scenario. The same seed yields the same scenarios
func SampleLatinHypercube(uncertainties []Uncertainty, n int, seed uint64) ([]*experiment.Experiment, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one scenario, got %v", n)
	}
	for _, u := range uncertainties {
		if !(u.Lower < u.Upper) {
			return nil, fmt.Errorf("uncertainty %q has empty range [%v,%v]", u.Name, u.Lower, u.Upper)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	samples := make([][]float64, len(uncertainties))
	for i, u := range uncertainties {
		dist := distuv.Uniform{Min: u.Lower, Max: u.Upper}
		samples[i] = make([]float64, n)
		for scenarioIDX, stratum := range rng.Perm(n) {
			p := (float64(stratum) + rng.Float64()) / float64(n)
			samples[i][scenarioIDX] = dist.Quantile(p)
		}
	}

	scenarios := make([]*experiment.Experiment, n)
	for scenarioIDX := range scenarios {
		exp := experiment.New()
		for i, u := range uncertainties {
			exp.Set(u.Variable, experiment.Scalar(samples[i][scenarioIDX]))
		}
		scenarios[scenarioIDX] = exp
	}
	return scenarios, nil
}

//ReadScenarios parses a comma separated design of experiments. The header holds the variable names and
//every following row is one scenario
func ReadScenarios(r io.Reader) ([]*experiment.Experiment, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenarios : %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("scenario file needs a header and at least one row")
	}
	header := records[0]
	scenarios := make([]*experiment.Experiment, 0, len(records)-1)
	for rowIDX, row := range records[1:] {
		exp := experiment.New()
		for colIDX, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %q in column %q of scenario %v : %w", cell, header[colIDX], rowIDX, err)
			}
			exp.Set(header[colIDX], experiment.Scalar(v))
		}
		scenarios = append(scenarios, exp)
	}
	return scenarios, nil
}
