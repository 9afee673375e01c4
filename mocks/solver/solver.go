//Package solver provides a fake solver Runner that mimics the file handling of the real executable
//without solving anything
package solver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lrcSuite/experiment"
	"lrcSuite/table"
)

//ExitError mimics *exec.ExitError
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %v", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

//Respond computes the output columns of the fake solver from the input columns
type Respond func(input *table.Columns) (names []string, columns [][]float64)

//DefaultRespond returns three time steps with a constant cash flow per input variable and the chlorine
//storage upper bound as stock, if present
func DefaultRespond(input *table.Columns) ([]string, [][]float64) {
	stock := 1600.0
	if v, ok := input.Values["stored CL2 (Nouryon):UB"]; ok && len(v) > 0 {
		stock = v[0]
	}
	cf := float64(len(input.Names))
	return []string{"CF total", "Chlorine storage"}, [][]float64{{cf, cf, cf}, {stock, stock, stock}}
}

//Solver is a fake solver. Set the fields before the first call
type Solver struct {
	Respond Respond
	//SkipOutput simulates a crash that leaves only the log file behind
	SkipOutput bool
	//Err is returned after the files have been written
	Err error

	mux       sync.Mutex
	calls     int
	lastArgs  []string
	lastInput *table.Columns
}

func (s *Solver) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("want model and experiment file, got %v", args)
	}
	modelBase, inputName := args[0], args[1]

	rawInput, err := os.ReadFile(filepath.Join(dir, inputName))
	if err != nil {
		return nil, fmt.Errorf("fake solver failed to read input : %w", err)
	}
	input, err := table.ReadResults(bytes.NewReader(rawInput), "")
	if err != nil {
		return nil, fmt.Errorf("fake solver failed to parse input : %w", err)
	}

	s.mux.Lock()
	s.calls++
	s.lastArgs = append([]string{name}, args...)
	s.lastInput = input
	respond := s.Respond
	s.mux.Unlock()
	if respond == nil {
		respond = DefaultRespond
	}

	base := filepath.Join(dir, modelBase)
	if err := os.WriteFile(base+"_exp.log", []byte("fake solver log\n"), 0o644); err != nil {
		return nil, err
	}
	if s.SkipOutput {
		return []byte("crashed"), s.Err
	}
	if err := os.WriteFile(base+"_exp.lp", []byte("\\ fake lp\n"), 0o644); err != nil {
		return nil, err
	}
	names, columns := respond(input)
	if err := writeOutput(base+"_exp.csv", names, columns); err != nil {
		return nil, err
	}
	return []byte("solved"), s.Err
}

func writeOutput(path string, names []string, columns [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	out := experiment.New()
	steps := 0
	for _, c := range columns {
		if len(c) > steps {
			steps = len(c)
		}
	}
	timeColumn := make([]float64, steps)
	for i := range timeColumn {
		timeColumn[i] = float64(i + 1)
	}
	out.Set("T", experiment.Series(timeColumn))
	for i, name := range names {
		out.Set(name, experiment.Series(columns[i]))
	}
	return table.WriteExperiment(f, out)
}

func (s *Solver) Calls() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.calls
}

//LastArgs returns executable, model base name and input file name of the latest call
func (s *Solver) LastArgs() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.lastArgs
}

//LastInput returns the parsed input file of the latest call
func (s *Solver) LastInput() *table.Columns {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.lastInput
}
