package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"lrcSuite/connector"
	"lrcSuite/tPlot"
	"lrcSuite/table"
)

var (
	plotInPath     string
	plotColumns    []string
	plotOutPath    string
	plotTitle      string
	plotYLabel     string
	plotThreshold  float64
	plotTimeColumn string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot columns of a solver output file",
	Long:  `Reads a ';' separated solver output file and plots the given columns over their time steps as png.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var threshold *float64
		if cmd.Flags().Changed("threshold") {
			threshold = &plotThreshold
		}

		in, err := os.Open(plotInPath)
		if err != nil {
			return fmt.Errorf("failed to open solver output : %w", err)
		}
		defer closeWithErrLog(plotInPath, in)
		series, err := selectSeries(in, plotTimeColumn, plotColumns)
		if err != nil {
			return err
		}

		outPath, err := defaultCreateCollisionFreeName(plotOutPath)
		if err != nil {
			return fmt.Errorf("failed to find name for plot : %w", err)
		}
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create plot file : %w", err)
		}
		defer closeWithErrLog(outPath, out)

		opts := tPlot.Options{Title: plotTitle, YLabel: plotYLabel, Threshold: threshold}
		if err := tPlot.PlotAndStore(series, opts, out); err != nil {
			return err
		}
		logger.Info("stored plot", zap.String("path", outPath))
		return out.Sync()
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotInPath, "in", "", "solver output file")
	plotCmd.Flags().StringSliceVar(&plotColumns, "column", nil, "columns to plot. All columns if empty")
	plotCmd.Flags().StringVar(&plotOutPath, "out", "plot.png", "png output file. A numeric suffix is added if it exists")
	plotCmd.Flags().StringVar(&plotTitle, "title", "", "plot title")
	plotCmd.Flags().StringVar(&plotYLabel, "ylabel", "", "label of the y axis")
	plotCmd.Flags().Float64Var(&plotThreshold, "threshold", 0, "draw a horizontal line at this value")
	plotCmd.Flags().StringVar(&plotTimeColumn, "timeColumn", connector.DefaultTimeColumn, "time step column of the solver output")
	_ = plotCmd.MarkFlagRequired("in")
}

//selectSeries reads the solver output in r and returns the named columns in the given order
func selectSeries(r io.Reader, timeColumn string, names []string) ([]tPlot.Series, error) {
	columns, err := table.ReadResults(r, timeColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read solver output : %w", err)
	}
	if len(names) == 0 {
		names = columns.Names
	}
	series := make([]tPlot.Series, 0, len(names))
	for _, name := range names {
		values, ok := columns.Values[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found, have %v", name, columns.Names)
		}
		series = append(series, tPlot.Series{Name: name, Values: values})
	}
	return series, nil
}
