package main

//CLI interface to generate deterministic synthetic reference data in the layout of the market data files
//(imbalance market per quarter hour, day-ahead per hour). Intended for dry runs of the scenario transformer
//without shipping the real market data
import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"lrcSuite/experiment"
	"lrcSuite/testUtils"
	"lrcSuite/timeSeries"
)

func writeColumns(path string, header []string, columns [][]float64) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %v : %v", path, err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			log.Printf("Failed to close %v : %v", path, err)
		}
	}()

	csvWriter := csv.NewWriter(outFile)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header : %v", err)
	}
	row := make([]string, len(columns))
	for i := range columns[0] {
		for c := range columns {
			row[c] = experiment.FormatFloat(columns[c][i])
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row %v : %v", i, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func main() {
	seed := flag.Int64("seed", 42, "Seed for pseudo RNG")
	outDir := flag.String("out", "", "folder where the csv files are stored")

	flag.Parse()

	if *outDir == "" {
		fmt.Println("Set \"out\"!")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create out folder : %v", err)
	}

	const quarters = timeSeries.QuartersPerYear
	imbalance := [][]float64{
		testUtils.DRNGFloat64SliceInRange(quarters, *seed, -50, 250),
		testUtils.DRNGFloat64SliceInRange(quarters, *seed+1, -80, 200),
		testUtils.DRNGFloat64SliceInRange(quarters, *seed+2, 0, 40),
		testUtils.DRNGFloat64SliceInRange(quarters, *seed+3, -40, 0),
	}
	err := writeColumns(filepath.Join(*outDir, "imbalance_market_electricity_data.csv"),
		[]string{"invoeden_EURMWh", "afnemen_EURMWh", "imbalance_demand", "imbalance_supply"}, imbalance)
	if err != nil {
		log.Fatalf("Failed to write imbalance data : %v", err)
	}

	const hours = timeSeries.DaysPerYear * 24
	dayAhead := [][]float64{
		testUtils.DRNGFloat64SliceInRange(hours, *seed+4, 20, 80),
		testUtils.DRNGFloat64SliceInRange(hours, *seed+5, 30, 110),
	}
	err = writeColumns(filepath.Join(*outDir, "day_ahead_market_electricity_data.csv"),
		[]string{"Data_2019", "Data_2030"}, dayAhead)
	if err != nil {
		log.Fatalf("Failed to write day-ahead data : %v", err)
	}
}
