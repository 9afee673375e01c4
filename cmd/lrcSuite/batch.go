package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/pbnjay/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/cheggaaa/pb.v1"
	"lrcSuite/config"
	"lrcSuite/connector"
	"lrcSuite/evaluator"
	"lrcSuite/experiment"
	"lrcSuite/httpReceiver"
	"lrcSuite/resultStore"
)

var (
	batchScenariosPath    string
	batchSamples          int
	batchSeed             uint64
	batchDBPath           string
	batchWorkers          int
	batchMemPerInstanceGB float64
	batchModels           []string
	batchCheckExitStatus  bool
	batchMetricsAddr      string
	batchSummaryOutcome   string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run all policies and scenarios on all model instances",
	Long: `Runs the full factorial design of the eight lever policies and the scenarios on every configured
model instance. Scenarios are read from a CSV design or sampled with a latin hypercube. Outcomes are stored in
an SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if batchCheckExitStatus {
			cfg.Solver.CheckExitStatus = true
		}
		models, err := selectInstances(cfg, batchModels)
		if err != nil {
			return err
		}
		concurrent := len(models)
		if batchWorkers > 0 && batchWorkers < concurrent {
			concurrent = batchWorkers
		}
		if err := checkMemory(concurrent, batchMemPerInstanceGB, memory.TotalMemory()); err != nil {
			return err
		}

		scenarios, err := loadScenarios()
		if err != nil {
			return err
		}
		opts, err := cfg.LoadReferenceData(logger)
		if err != nil {
			return fmt.Errorf("failed to load reference data : %w", err)
		}

		reg := prometheus.NewRegistry()
		metrics, err := connector.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics : %w", err)
		}
		instances := make([]evaluator.Instance, 0, len(models))
		for _, m := range models {
			tr, err := newTransformer(cfg, m, opts, metrics)
			if err != nil {
				return err
			}
			instances = append(instances, evaluator.Instance{Name: m.Name, Runner: tr})
		}

		dbPath, err := defaultCreateCollisionFreeName(batchDBPath)
		if err != nil {
			return fmt.Errorf("failed to find name for result database : %w", err)
		}
		ctx, cancel := signalContext()
		defer cancel()
		store, err := resultStore.Open(ctx, dbPath)
		if err != nil {
			return err
		}
		defer closeWithErrLog(dbPath, store)
		logger.Info("storing results", zap.String("db", dbPath))

		if batchMetricsAddr != "" {
			metricsCtx, stopMetrics := context.WithCancel(ctx)
			defer stopMetrics()
			go serveMetrics(metricsCtx, batchMetricsAddr, reg)
		}

		policies := evaluator.FullFactorial()
		bar := pb.New(len(instances) * len(policies) * len(scenarios))
		bar.Output = cmd.ErrOrStderr()
		bar.Start()
		ev := evaluator.New(evaluator.Options{
			Sink: store,
			Progress: func() {
				bar.Increment()
			},
			MaxWorkers: batchWorkers,
			Logger:     logger,
		})
		results, err := ev.Perform(ctx, instances, policies, scenarios)
		bar.Finish()
		if err != nil {
			return err
		}

		stored, err := store.RunCount(ctx)
		if err != nil {
			return err
		}
		logger.Info("batch done", zap.Int("runs", len(results)), zap.Int("stored", stored))
		return printPolicySummary(cmd.OutOrStdout(), results, batchSummaryOutcome)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchScenariosPath, "scenarios", "", "CSV design with one scenario per row. Sampled if empty")
	batchCmd.Flags().IntVar(&batchSamples, "samples", 10, "number of latin hypercube samples if --scenarios is empty")
	batchCmd.Flags().Uint64Var(&batchSeed, "seed", 1, "seed of the latin hypercube sampling")
	batchCmd.Flags().StringVar(&batchDBPath, "db", "results.db", "SQLite result database. A numeric suffix is added if it exists")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "maximal number of model instances running at once, 0 runs all")
	batchCmd.Flags().Float64Var(&batchMemPerInstanceGB, "memPerInstanceGB", 1, "memory needed by one solver instance in GB")
	batchCmd.Flags().StringSliceVar(&batchModels, "models", nil, "restrict the batch to these model instances")
	batchCmd.Flags().BoolVar(&batchCheckExitStatus, "checkExitStatus", false, "fail on a non-zero exit status of the solver")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metricsAddr", "", "serve prometheus metrics on this address while running")
	batchCmd.Flags().StringVar(&batchSummaryOutcome, "summary", evaluator.DefaultScalarOutcomes()[0].Name, "scalar outcome averaged per policy after the run")
}

//selectInstances returns the configured instances, restricted to names if it is not empty
func selectInstances(cfg *config.Config, names []string) ([]config.ModelConfig, error) {
	if len(names) == 0 {
		return cfg.Instances(), nil
	}
	out := make([]config.ModelConfig, 0, len(names))
	for _, name := range names {
		m, err := cfg.Instance(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

//checkMemory rejects setups whose concurrent solver instances would not fit into totalBytes
func checkMemory(instances int, perInstanceGB float64, totalBytes uint64) error {
	if perInstanceGB < 0 {
		return fmt.Errorf("memPerInstanceGB must not be negative, got %v", perInstanceGB)
	}
	needGB := float64(instances) * perInstanceGB
	if haveGB := float64(totalBytes) / giga; needGB > haveGB {
		return fmt.Errorf("%v instances need %.1f GB but the system only has %.1f GB, reduce --workers", instances, needGB, haveGB)
	}
	return nil
}

func loadScenarios() ([]*experiment.Experiment, error) {
	if batchScenariosPath == "" {
		scenarios, err := evaluator.SampleLatinHypercube(evaluator.DefaultUncertainties(), batchSamples, batchSeed)
		if err != nil {
			return nil, fmt.Errorf("failed to sample scenarios : %w", err)
		}
		return scenarios, nil
	}
	f, err := os.Open(batchScenariosPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenarios : %w", err)
	}
	defer closeWithErrLog(batchScenariosPath, f)
	scenarios, err := evaluator.ReadScenarios(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios from %v : %w", batchScenariosPath, err)
	}
	return scenarios, nil
}

func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) {
	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: router}
	if err := httpReceiver.Serve(ctx, srv, logger); err != nil {
		logger.Warn("metrics endpoint stopped", zap.Error(err))
	}
}

//printPolicySummary prints mean and standard deviation of outcome per policy, in policy order of results
func printPolicySummary(w io.Writer, results []evaluator.Result, outcome string) error {
	var order []string
	values := make(map[string][]float64)
	for _, r := range results {
		v, ok := r.Scalars[outcome]
		if !ok {
			continue
		}
		if _, seen := values[r.Case.Policy]; !seen {
			order = append(order, r.Case.Policy)
		}
		values[r.Case.Policy] = append(values[r.Case.Policy], v)
	}
	if len(order) == 0 {
		return fmt.Errorf("no results contain outcome %q", outcome)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Policy\tRuns\tMean %v\tStdDev\n", outcome)
	for _, policy := range order {
		mean, std := stat.MeanStdDev(values[policy], nil)
		fmt.Fprintf(tw, "%v\t%v\t%.2f\t%.2f\n", policy, len(values[policy]), mean, std)
	}
	return tw.Flush()
}
