package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"lrcSuite/connector"
	"lrcSuite/httpReceiver"
)

var (
	serveModel           string
	serveAddr            string
	serveCheckExitStatus bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept experiments over HTTP for one model instance",
	Long: `Serves POST /experiment with a JSON experiment as body, GET /healthz and GET /metrics.
Experiments are run one after another on the given model instance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveCheckExitStatus {
			cfg.Solver.CheckExitStatus = true
		}
		m, err := cfg.Instance(serveModel)
		if err != nil {
			return err
		}
		opts, err := cfg.LoadReferenceData(logger)
		if err != nil {
			return fmt.Errorf("failed to load reference data : %w", err)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		metrics, err := connector.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics : %w", err)
		}
		tr, err := newTransformer(cfg, m, opts, metrics)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()
		srv := &http.Server{
			Addr:    serveAddr,
			Handler: httpReceiver.NewReceiver(tr, reg, logger).Routes(),
		}
		return httpReceiver.Serve(ctx, srv, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveModel, "model", "", "name of the model instance")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveCheckExitStatus, "checkExitStatus", false, "fail on a non-zero exit status of the solver")
	_ = serveCmd.MarkFlagRequired("model")
}
