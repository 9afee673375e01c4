package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"lrcSuite/connector"
	"lrcSuite/evaluator"
	"lrcSuite/experiment"
)

var (
	runModel           string
	runExperimentPath  string
	runRaw             bool
	runCheckExitStatus bool
	runOutPath         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single experiment on one model instance",
	Long: `Reads an experiment from a JSON object, e.g. {"steam_pipe": true, "e_boiler": false, ...}, runs it
on the given model instance and prints the sum of every result column.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runCheckExitStatus {
			cfg.Solver.CheckExitStatus = true
		}
		m, err := cfg.Instance(runModel)
		if err != nil {
			return err
		}
		exp, err := readExperiment(runExperimentPath)
		if err != nil {
			return err
		}

		var runner evaluator.ExperimentRunner
		if runRaw {
			runner, err = connector.New(cfg.ConnectorOptions(m, logger.With(zap.String("model", m.Name)), nil))
			if err != nil {
				return fmt.Errorf("failed to setup connector : %w", err)
			}
		} else {
			opts, err := cfg.LoadReferenceData(logger)
			if err != nil {
				return fmt.Errorf("failed to load reference data : %w", err)
			}
			if runner, err = newTransformer(cfg, m, opts, nil); err != nil {
				return err
			}
		}

		ctx, cancel := signalContext()
		defer cancel()
		res, err := runner.RunExperiment(ctx, exp)
		if err != nil {
			return err
		}
		if runOutPath != "" {
			if err := writeResults(runOutPath, res); err != nil {
				return err
			}
			logger.Info("stored results", zap.String("path", runOutPath))
		}
		return printSums(cmd.OutOrStdout(), res)
	},
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "name of the model instance")
	runCmd.Flags().StringVar(&runExperimentPath, "experiment", "", "path to the experiment JSON file")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "pass the experiment to the solver without scenario transformation")
	runCmd.Flags().BoolVar(&runCheckExitStatus, "checkExitStatus", false, "fail on a non-zero exit status of the solver")
	runCmd.Flags().StringVar(&runOutPath, "out", "", "optional path to store all result columns as JSON")
	_ = runCmd.MarkFlagRequired("model")
	_ = runCmd.MarkFlagRequired("experiment")
}

func readExperiment(path string) (*experiment.Experiment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open experiment : %w", err)
	}
	defer closeWithErrLog(path, f)

	exp := experiment.New()
	if err := json.NewDecoder(f).Decode(exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment %v : %w", path, err)
	}
	if exp.Len() == 0 {
		return nil, fmt.Errorf("experiment %v is empty", path)
	}
	return exp, nil
}

//printSums writes one line per result column with its sum, NaN cells are skipped
func printSums(w io.Writer, res connector.Results) error {
	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Variable\tSum\tSteps")
	for _, name := range names {
		fmt.Fprintf(tw, "%v\t%v\t%v\n", name, experiment.FormatFloat(evaluator.Sum(res[name])), len(res[name]))
	}
	return tw.Flush()
}

//writeResults stores res as JSON object, NaN and infinite cells become null
func writeResults(path string, res connector.Results) error {
	out := make(map[string][]*float64, len(res))
	for name, values := range res {
		out[name] = experiment.NullableFloats(values)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file : %w", err)
	}
	defer closeWithErrLog(path, f)
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to write results : %w", err)
	}
	return f.Sync()
}
