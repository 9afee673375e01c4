//Package main provides the cli interface of lrcSuite
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"lrcSuite/config"
	"lrcSuite/connector"
	"lrcSuite/scenario"
)

//giga is used to convert memory sizes from bytes
const giga = 1024 * 1024 * 1024

var (
	verbose    bool
	configPath string
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lrcSuite",
	Short: "Scenario studies on Linny-R models of the Botlek cluster",
	Long: `lrcSuite feeds experiments to the Linny-R command line solver. Scalar factors are expanded into
time series for the characteristic weeks of each model before the solver runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to create logger : %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config. Uses the built-in Botlek setup if empty")

	rootCmd.AddCommand(runCmd, batchCmd, serveCmd, plotCmd, initConfigCmd)
}

//loadConfig reads the file given by --config or falls back to config.Default
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config : %w", err)
		}
		return cfg, nil
	}
	return config.Load(configPath)
}

//newTransformer builds the connector of model instance m and wraps it with the scenario transformer
func newTransformer(cfg *config.Config, m config.ModelConfig, opts scenario.Options, metrics *connector.Metrics) (*scenario.Transformer, error) {
	instanceLogger := logger.With(zap.String("model", m.Name))
	conn, err := connector.New(cfg.ConnectorOptions(m, instanceLogger, metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to setup connector for %v : %w", m.Name, err)
	}
	opts.Logger = instanceLogger
	tr, err := scenario.New(conn, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to setup scenario transformer for %v : %w", m.Name, err)
	}
	return tr, nil
}

//signalContext is cancelled on SIGINT and SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

//closeWithErrLog is a helper that calls Close on c and prints a log message if an error occurs
func closeWithErrLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close", zap.String("name", name), zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
