//Package table converts experiments into the delimited input format of the solver and parses
//its delimited output tables
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"lrcSuite/experiment"
)

//Delimiter used by the solver for both input and output files
const Delimiter = ';'

//ErrNoColumns is returned if a table lacks a header row
var ErrNoColumns = errors.New("table has no header row")

//PadRagged transposes columns into rows. Columns may have different lengths, shorter ones are
//padded with empty cells up to the length of the longest column. Nothing is truncated
func PadRagged(columns [][]string) [][]string {
	rowCount := 0
	for _, c := range columns {
		if len(c) > rowCount {
			rowCount = len(c)
		}
	}
	rows := make([][]string, rowCount)
	for rowIDX := range rows {
		rows[rowIDX] = make([]string, len(columns))
		for colIDX, c := range columns {
			if rowIDX < len(c) {
				rows[rowIDX][colIDX] = c[rowIDX]
			}
		}
	}
	return rows
}

//WriteExperiment writes the variable names of exp as header row followed by the padded value rows
func WriteExperiment(w io.Writer, exp *experiment.Experiment) error {
	header := exp.Keys()
	columns := make([][]string, 0, len(header))
	exp.Range(func(_ string, v experiment.Value) bool {
		columns = append(columns, v.Cells())
		return true
	})

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = Delimiter
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header : %w", err)
	}
	if err := csvWriter.WriteAll(PadRagged(columns)); err != nil {
		return fmt.Errorf("failed to write values : %w", err)
	}
	return csvWriter.Error()
}

//Columns holds numeric columns together with their order in the source table
type Columns struct {
	Names  []string
	Values map[string][]float64
}

//ReadResults parses a solver output table. Every column except timeColumn is converted to float64.
//Empty cells become NaN
func ReadResults(r io.Reader, timeColumn string) (*Columns, error) {
	records, err := readAll(r, Delimiter)
	if err != nil {
		return nil, err
	}
	header := records[0]
	res := &Columns{
		Names:  make([]string, 0, len(header)),
		Values: make(map[string][]float64, len(header)),
	}
	for colIDX, name := range header {
		if name == timeColumn {
			continue
		}
		values, err := parseColumn(records[1:], colIDX, name)
		if err != nil {
			return nil, err
		}
		res.Names = append(res.Names, name)
		res.Values[name] = values
	}
	return res, nil
}

//ReadColumns loads the named numeric columns from a delimited table with header row
func ReadColumns(r io.Reader, delimiter rune, names ...string) (map[string][]float64, error) {
	records, err := readAll(r, delimiter)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	res := make(map[string][]float64, len(names))
	for _, name := range names {
		colIDX, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		values, err := parseColumn(records[1:], colIDX, name)
		if err != nil {
			return nil, err
		}
		res[name] = values
	}
	return res, nil
}

func readAll(r io.Reader, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	//disable "all fields must have same entry count" check
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table : %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoColumns
	}
	return records, nil
}

func parseColumn(rows [][]string, colIDX int, name string) ([]float64, error) {
	values := make([]float64, len(rows))
	for rowIDX, row := range rows {
		if colIDX >= len(row) {
			values[rowIDX] = math.NaN()
			continue
		}
		cell := strings.TrimSpace(row[colIDX])
		if cell == "" {
			values[rowIDX] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			//+2 for header and 1-based line numbers
			return nil, fmt.Errorf("failed to parse %q in column %q line %v : %w", cell, name, rowIDX+2, err)
		}
		values[rowIDX] = v
	}
	return values, nil
}
