package evaluator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"lrcSuite/connector"
)

//ScalarOutcome reduces a result column to a single number
type ScalarOutcome struct {
	Name     string
	Variable string
	//Reduce defaults to Sum
	Reduce func([]float64) float64
}

//ArrayOutcome keeps a result column as it is
type ArrayOutcome struct {
	Name     string
	Variable string
}

//Sum adds all values of a column. NaN cells of padded columns are skipped
func Sum(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return floats.Sum(clean)
}

//DefaultScalarOutcomes returns the weekly totals of the Botlek study
func DefaultScalarOutcomes() []ScalarOutcome {
	return []ScalarOutcome{
		{Name: "Total cash flow of the cluster (euro/week)", Variable: "CF total"},
		{Name: "Total cash flow of Air Liquide (euro/week)", Variable: "CF Air Liquide"},
		{Name: "Total cash flow of Huntsman (euro/week)", Variable: "CF Huntsman"},
		{Name: "Total cash flow of Nouryon (euro/week)", Variable: "CF Nouryon"},
		{Name: "Total CO2 emissions (ton/week)", Variable: "CO2 emission"},
		{Name: "Total green steam use by Air Liquide and Huntsman (ton/week)", Variable: "Use SP-A"},
		{Name: "Total green steam use by Nouryon (ton/week)", Variable: "Use SP-B"},
	}
}

//DefaultArrayOutcomes returns the chlorine stock and the solver run time
func DefaultArrayOutcomes() []ArrayOutcome {
	return []ArrayOutcome{
		{Name: "Chlorine storage stock at Nouryon (ton)", Variable: "Chlorine storage"},
		{Name: "Run-time (s)", Variable: connector.RunTimeKey},
	}
}

//reduceOutcomes extracts the configured outcomes from res. A missing variable is an error
func reduceOutcomes(res connector.Results, scalars []ScalarOutcome, arrays []ArrayOutcome) (map[string]float64, map[string][]float64, error) {
	scalarValues := make(map[string]float64, len(scalars))
	for _, o := range scalars {
		column, ok := res[o.Variable]
		if !ok {
			return nil, nil, fmt.Errorf("outcome %q: variable %q missing in results", o.Name, o.Variable)
		}
		reduce := o.Reduce
		if reduce == nil {
			reduce = Sum
		}
		scalarValues[o.Name] = reduce(column)
	}
	arrayValues := make(map[string][]float64, len(arrays))
	for _, o := range arrays {
		column, ok := res[o.Variable]
		if !ok {
			return nil, nil, fmt.Errorf("outcome %q: variable %q missing in results", o.Name, o.Variable)
		}
		arrayValues[o.Name] = append([]float64(nil), column...)
	}
	return scalarValues, arrayValues, nil
}
