//Package connector runs one experiment against a solver model: it writes the experiment as input file,
//calls the solver executable and parses the produced output table
package connector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"lrcSuite/experiment"
	"lrcSuite/table"
)

const (
	//ModelSuffixLen is stripped from the model file name to get the name the solver expects (".lnr")
	ModelSuffixLen        = 4
	DefaultExperimentFile = "exp.csv"
	DefaultTimeColumn     = "T"
	//RunTimeKey holds the wall clock time of the solver call in seconds
	RunTimeKey = "Run-time"

	outputSuffix = "_exp.csv"
	lpSuffix     = "_exp.lp"
	logSuffix    = "_exp.log"
)

var ErrNonZeroExit = errors.New("solver exited with non-zero status")

//ExitPolicy decides how a non-zero exit status of the solver is treated
type ExitPolicy int

const (
	//IgnoreExitStatus only logs a non-zero exit. A failed solver run is detected by the missing or
	//broken output file, while its log file can still be inspected
	IgnoreExitStatus ExitPolicy = iota
	//CheckExitStatus fails the run with ErrNonZeroExit
	CheckExitStatus
)

//Results maps output variables to their values per time step. RunTimeKey holds the run time
type Results map[string][]float64

//RunTime returns the measured run time, ok is false if it is missing
func (r Results) RunTime() (time.Duration, bool) {
	v, ok := r[RunTimeKey]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return time.Duration(v[0] * float64(time.Second)), true
}

//Options configures a Connector. Empty fields take the defaults
type Options struct {
	//Name identifies the model instance in logs and metrics, defaults to the model file
	Name string
	//WorkingDir contains the model file, all artifacts are created here
	WorkingDir string
	ModelFile  string
	Executable string
	//ExperimentFile is the name of the generated input file inside WorkingDir
	ExperimentFile string
	//TimeColumn is excluded from the results
	TimeColumn string
	ExitPolicy ExitPolicy
	Runner     Runner
	Logger     *zap.Logger
	Metrics    *Metrics
}

//Connector runs experiments for one model instance. Calls on the same instance share file names and
//must not overlap, instances with distinct working directories may run concurrently
type Connector struct {
	name           string
	workingDir     string
	modelFile      string
	executable     string
	experimentFile string
	timeColumn     string
	exitPolicy     ExitPolicy
	runner         Runner
	logger         *zap.Logger
	metrics        *Metrics
}

func New(opts Options) (*Connector, error) {
	if opts.WorkingDir == "" {
		return nil, fmt.Errorf("working directory not set")
	}
	if len(opts.ModelFile) <= ModelSuffixLen {
		return nil, fmt.Errorf("model file name %q is too short", opts.ModelFile)
	}
	if opts.Executable == "" {
		return nil, fmt.Errorf("executable not set")
	}

	workingDir, err := filepath.Abs(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory : %w", err)
	}
	executable := opts.Executable
	//bare names are looked up in PATH, everything else must not depend on the child's working directory
	if strings.ContainsRune(executable, filepath.Separator) || strings.ContainsRune(executable, '/') {
		if executable, err = filepath.Abs(executable); err != nil {
			return nil, fmt.Errorf("failed to resolve executable : %w", err)
		}
	}

	c := &Connector{
		name:           opts.Name,
		workingDir:     workingDir,
		modelFile:      opts.ModelFile,
		executable:     executable,
		experimentFile: opts.ExperimentFile,
		timeColumn:     opts.TimeColumn,
		exitPolicy:     opts.ExitPolicy,
		runner:         opts.Runner,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
	if c.name == "" {
		c.name = c.modelFile
	}
	if c.experimentFile == "" {
		c.experimentFile = DefaultExperimentFile
	}
	if c.timeColumn == "" {
		c.timeColumn = DefaultTimeColumn
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("model", c.name))
	return c, nil
}

func (c *Connector) Name() string {
	return c.name
}

func (c *Connector) WorkingDir() string {
	return c.workingDir
}

//BaseName is the model file without its suffix, the solver appends the suffix itself
func (c *Connector) BaseName() string {
	return c.modelFile[:len(c.modelFile)-ModelSuffixLen]
}

//Artifacts returns the paths of all files created by one run: the input file, the output table,
//the lp dump and the solver log
func (c *Connector) Artifacts() []string {
	base := filepath.Join(c.workingDir, c.BaseName())
	return []string{
		filepath.Join(c.workingDir, c.experimentFile),
		base + outputSuffix,
		base + lpSuffix,
		base + logSuffix,
	}
}

//RunExperiment writes exp as input file, runs the solver and returns the parsed output. All artifacts
//are removed afterwards, whether the run succeeded or not. Missing artifacts are reported as errors
//satisfying errors.Is(err, fs.ErrNotExist)
func (c *Connector) RunExperiment(ctx context.Context, exp *experiment.Experiment) (res Results, err error) {
	if err := c.writeInput(exp); err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := c.cleanup(); cleanupErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to clean up artifacts : %w", cleanupErr))
			res = nil
		}
	}()

	start := time.Now()
	output, runErr := c.runner.Run(ctx, c.workingDir, c.executable, c.BaseName(), c.experimentFile)
	runTime := time.Since(start)
	c.logger.Debug("solver finished", zap.Duration("run_time", runTime), zap.ByteString("output", output))
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.metrics.observe(c.name, runTime, ctxErr)
		return nil, fmt.Errorf("solver run cancelled after %v : %w", runTime, ctxErr)
	}
	if runErr != nil {
		var exitErr exitCoder
		if !errors.As(runErr, &exitErr) {
			c.metrics.observe(c.name, runTime, runErr)
			return nil, fmt.Errorf("failed to run %v : %w", c.executable, runErr)
		}
		if c.exitPolicy == CheckExitStatus {
			c.metrics.observe(c.name, runTime, runErr)
			return nil, fmt.Errorf("%w %v : %w", ErrNonZeroExit, exitErr.ExitCode(), runErr)
		}
		c.logger.Warn("solver exited with non-zero status, reading output anyway", zap.Int("exit_code", exitErr.ExitCode()))
	}

	res, err = c.readOutput()
	c.metrics.observe(c.name, runTime, err)
	if err != nil {
		return nil, err
	}
	res[RunTimeKey] = []float64{runTime.Seconds()}
	c.logger.Info("experiment done", zap.Duration("run_time", runTime), zap.Int("outputs", len(res)-1))
	return res, nil
}

func (c *Connector) writeInput(exp *experiment.Experiment) error {
	path := filepath.Join(c.workingDir, c.experimentFile)
	c.logger.Debug("writing experiment file", zap.String("path", path), zap.Int("variables", exp.Len()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create experiment file : %w", err)
	}
	if err := table.WriteExperiment(f, exp); err != nil {
		f.Close()
		return fmt.Errorf("failed to write experiment file : %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close experiment file : %w", err)
	}
	return nil
}

func (c *Connector) readOutput() (Results, error) {
	path := filepath.Join(c.workingDir, c.BaseName()+outputSuffix)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open solver output : %w", err)
	}
	defer f.Close()

	cols, err := table.ReadResults(f, c.timeColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse solver output %v : %w", path, err)
	}
	res := make(Results, len(cols.Values)+1)
	for name, values := range cols.Values {
		res[name] = values
	}
	return res, nil
}

//cleanup tries to remove every artifact and returns all failures
func (c *Connector) cleanup() error {
	var errs []error
	for _, path := range c.Artifacts() {
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
