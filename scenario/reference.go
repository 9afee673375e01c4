package scenario

import (
	"fmt"
	"os"
	"sort"

	"lrcSuite/table"
)

//ReferenceSource describes a delimited file whose columns back model variables
type ReferenceSource struct {
	Path      string
	Delimiter rune
	//Columns maps model variable to column name
	Columns map[string]string
}

//LoadReferenceSeries reads the columns of src and returns them keyed by model variable
func LoadReferenceSeries(src ReferenceSource) (map[string][]float64, error) {
	variables := make([]string, 0, len(src.Columns))
	for v := range src.Columns {
		variables = append(variables, v)
	}
	sort.Strings(variables)
	columnNames := make([]string, len(variables))
	for i, v := range variables {
		columnNames[i] = src.Columns[v]
	}

	columns, err := readColumns(src.Path, src.Delimiter, columnNames...)
	if err != nil {
		return nil, err
	}
	res := make(map[string][]float64, len(variables))
	for i, v := range variables {
		res[v] = columns[columnNames[i]]
	}
	return res, nil
}

//LoadDayAhead reads the hourly baseline and target price forecasts
func LoadDayAhead(path string, delimiter rune, baselineColumn, targetColumn string) ([]float64, []float64, error) {
	columns, err := readColumns(path, delimiter, baselineColumn, targetColumn)
	if err != nil {
		return nil, nil, err
	}
	return columns[baselineColumn], columns[targetColumn], nil
}

func readColumns(path string, delimiter rune, names ...string) (map[string][]float64, error) {
	if delimiter == 0 {
		delimiter = ','
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference data : %w", err)
	}
	defer f.Close()
	columns, err := table.ReadColumns(f, delimiter, names...)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data %v : %w", path, err)
	}
	return columns, nil
}
