//Package config loads the YAML description of the solver models and of the scenario transformation
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"lrcSuite/connector"
	"lrcSuite/scenario"
	"lrcSuite/timeSeries"
)

//Config holds the complete setup of a study
type Config struct {
	//Horizon in years
	Horizon int `yaml:"horizon"`

	Solver SolverConfig `yaml:"solver"`

	//Models lists explicit model instances
	Models []ModelConfig `yaml:"models"`
	//Grid adds one instance per perspective and week
	Grid *GridConfig `yaml:"grid,omitempty"`

	Reference ReferenceConfig `yaml:"reference"`
	DayAhead  DayAheadConfig  `yaml:"day_ahead"`

	//CurrentValues anchor the future value variables at the start of the horizon
	CurrentValues map[string]float64 `yaml:"current_values"`
	Negated       []string           `yaml:"negated"`
	Cyclical      CyclicalConfig     `yaml:"cyclical"`
	Constants     []string           `yaml:"constants"`

	Reducer ReducerConfig `yaml:"reducer"`
}

//SolverConfig configures the command line solver
type SolverConfig struct {
	Executable      string `yaml:"executable"`
	ExperimentFile  string `yaml:"experiment_file"`
	TimeColumn      string `yaml:"time_column"`
	CheckExitStatus bool   `yaml:"check_exit_status"`
}

//ModelConfig describes one isolated model instance
type ModelConfig struct {
	Name       string `yaml:"name"`
	WorkingDir string `yaml:"working_dir"`
	ModelFile  string `yaml:"model_file"`
}

//GridConfig describes the perspective x week grid of model files
type GridConfig struct {
	Perspectives []string `yaml:"perspectives"`
	Weeks        []int    `yaml:"weeks"`
	//BaseDir receives one sub folder per instance
	BaseDir string `yaml:"base_dir"`
}

//ReferenceConfig maps model variables to the columns of the reference series file
type ReferenceConfig struct {
	Path      string            `yaml:"path"`
	Delimiter string            `yaml:"delimiter"`
	Columns   map[string]string `yaml:"columns"`
}

//DayAheadConfig configures the day-ahead price forecast
type DayAheadConfig struct {
	Key            string `yaml:"key"`
	Path           string `yaml:"path"`
	Delimiter      string `yaml:"delimiter"`
	BaselineColumn string `yaml:"baseline_column"`
	TargetColumn   string `yaml:"target_column"`
	StepsPerHour   int    `yaml:"steps_per_hour"`
}

//CyclicalConfig configures the sinusoidal price variable
type CyclicalConfig struct {
	Key       string  `yaml:"key"`
	Amplitude float64 `yaml:"amplitude"`
	Offset    float64 `yaml:"offset"`
}

//ReducerConfig selects the characteristic week reducers by name, see timeSeries.GetAvailableReducers
type ReducerConfig struct {
	Series   string `yaml:"series"`
	Cyclical string `yaml:"cyclical"`
	Weeks    []int  `yaml:"weeks"`
}

//Default returns the Botlek cluster setup
func Default() *Config {
	return &Config{
		Horizon: 10,
		Solver: SolverConfig{
			Executable:     filepath.Join("software", "lrc.exe"),
			ExperimentFile: connector.DefaultExperimentFile,
			TimeColumn:     connector.DefaultTimeColumn,
		},
		Grid: &GridConfig{
			Perspectives: []string{"collective", "airliquide", "nouryon", "huntsman"},
			Weeks:        []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			BaseDir:      "models",
		},
		Reference: ReferenceConfig{
			Path:      filepath.Join("data", "imbalance_market_electricity_data.csv"),
			Delimiter: ",",
			Columns: map[string]string{
				"Unbal opregelen:Price": "invoeden_EURMWh",
				"Unbal afregelen:Price": "afnemen_EURMWh",
				"Unbal opregelen:UB":    "imbalance_demand",
				"Unbal afregelen:LB":    "imbalance_supply",
			},
		},
		DayAhead: DayAheadConfig{
			Key:            "E day-ahead:Price",
			Path:           filepath.Join("data", "day_ahead_market_electricity_data.csv"),
			Delimiter:      ",",
			BaselineColumn: "Data_2019",
			TargetColumn:   "Data_2030",
			StepsPerHour:   timeSeries.QuartersPerHour,
		},
		CurrentValues: map[string]float64{
			"natural gas market:Price":               0.28,
			"CO2 EUROPEAN EMISSION ALLOWANCES:Price": 25,
			"H2 markt:Price":                         0.18,
		},
		Negated: []string{"CO2 EUROPEAN EMISSION ALLOWANCES:Price"},
		Cyclical: CyclicalConfig{
			Key:       "NaOH 50%:Price",
			Amplitude: 450,
			Offset:    550,
		},
		Constants: []string{"Capex E-boiler:Price", "OPEX E-BOILER:Price", "CAPEX Steam Pipe:Price"},
		Reducer: ReducerConfig{
			Series:   "characteristicWeeks",
			Cyclical: "weekAverage",
			Weeks:    append([]int(nil), timeSeries.DefaultWeeks...),
		},
	}
}

//Load reads the YAML file at path on top of Default and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config : %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config : %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v : %w", path, err)
	}
	return cfg, nil
}

//Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config : %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config : %w", err)
	}
	return nil
}

//Instances returns the explicit models followed by the expanded grid
func (c *Config) Instances() []ModelConfig {
	instances := append([]ModelConfig(nil), c.Models...)
	if c.Grid != nil {
		instances = append(instances, ExpandInstances(c.Grid.Perspectives, c.Grid.Weeks, c.Grid.BaseDir)...)
	}
	return instances
}

//Instance looks up an instance by name
func (c *Config) Instance(name string) (ModelConfig, error) {
	for _, m := range c.Instances() {
		if m.Name == name {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("no model instance named %q", name)
}

//ExpandInstances builds one instance per perspective and week. Every instance gets its own sub folder of
//baseDir, so instances can run concurrently without sharing input and output files
func ExpandInstances(perspectives []string, weeks []int, baseDir string) []ModelConfig {
	out := make([]ModelConfig, 0, len(perspectives)*len(weeks))
	for _, p := range perspectives {
		for _, w := range weeks {
			name := fmt.Sprintf("%vweek%v", p, w)
			out = append(out, ModelConfig{
				Name:       name,
				WorkingDir: filepath.Join(baseDir, name),
				ModelFile:  fmt.Sprintf("botlek_model_%v_week_%v.lnr", p, w),
			})
		}
	}
	return out
}

//Validate checks the configuration for values the solver pipeline cannot work with
func (c *Config) Validate() error {
	var errs []error
	if c.Horizon < 1 {
		errs = append(errs, fmt.Errorf("horizon must be at least 1, got %v", c.Horizon))
	}
	if c.Solver.Executable == "" {
		errs = append(errs, errors.New("solver executable is required"))
	}
	if c.Cyclical.Amplitude < 0 {
		errs = append(errs, fmt.Errorf("cyclical amplitude must not be negative, got %v", c.Cyclical.Amplitude))
	}
	if c.DayAhead.Key != "" && c.DayAhead.StepsPerHour < 1 {
		errs = append(errs, fmt.Errorf("day-ahead steps per hour must be at least 1, got %v", c.DayAhead.StepsPerHour))
	}
	for _, name := range []string{c.Reducer.Series, c.Reducer.Cyclical} {
		if _, err := timeSeries.GetReducer(name, c.Reducer.Weeks); err != nil {
			errs = append(errs, err)
		}
	}

	instances := c.Instances()
	if len(instances) == 0 {
		errs = append(errs, errors.New("no model instances configured"))
	}
	names := make(map[string]bool, len(instances))
	dirs := make(map[string]string, len(instances))
	for _, m := range instances {
		if len(m.ModelFile) <= connector.ModelSuffixLen {
			errs = append(errs, fmt.Errorf("instance %q: model file %q is too short", m.Name, m.ModelFile))
		}
		if m.WorkingDir == "" {
			errs = append(errs, fmt.Errorf("instance %q: working dir is required", m.Name))
		}
		if names[m.Name] {
			errs = append(errs, fmt.Errorf("duplicate instance name %q", m.Name))
		}
		names[m.Name] = true
		dir := filepath.Clean(m.WorkingDir)
		if other, ok := dirs[dir]; ok {
			errs = append(errs, fmt.Errorf("instances %q and %q share working dir %v", other, m.Name, dir))
		}
		dirs[dir] = m.Name
	}
	return errors.Join(errs...)
}

//ExitPolicy translates Solver.CheckExitStatus
func (c *Config) ExitPolicy() connector.ExitPolicy {
	if c.Solver.CheckExitStatus {
		return connector.CheckExitStatus
	}
	return connector.IgnoreExitStatus
}

//ConnectorOptions returns the options of the connector for model instance m
func (c *Config) ConnectorOptions(m ModelConfig, logger *zap.Logger, metrics *connector.Metrics) connector.Options {
	return connector.Options{
		Name:           m.Name,
		WorkingDir:     m.WorkingDir,
		ModelFile:      m.ModelFile,
		Executable:     c.Solver.Executable,
		ExperimentFile: c.Solver.ExperimentFile,
		TimeColumn:     c.Solver.TimeColumn,
		ExitPolicy:     c.ExitPolicy(),
		Logger:         logger,
		Metrics:        metrics,
	}
}

//LoadReferenceData reads the reference series and day-ahead forecasts and returns the options of the
//scenario transformer. The data is shared by all instances
func (c *Config) LoadReferenceData(logger *zap.Logger) (scenario.Options, error) {
	reducer, err := timeSeries.GetReducer(c.Reducer.Series, c.Reducer.Weeks)
	if err != nil {
		return scenario.Options{}, err
	}
	cyclicalReducer, err := timeSeries.GetReducer(c.Reducer.Cyclical, c.Reducer.Weeks)
	if err != nil {
		return scenario.Options{}, err
	}

	opts := scenario.Options{
		Horizon:         c.Horizon,
		DayAheadKey:     c.DayAhead.Key,
		DayAheadRepeat:  c.DayAhead.StepsPerHour,
		CurrentValues:   c.CurrentValues,
		Negated:         c.Negated,
		CyclicalKey:     c.Cyclical.Key,
		Amplitude:       c.Cyclical.Amplitude,
		Offset:          c.Cyclical.Offset,
		Constants:       c.Constants,
		Reducer:         reducer,
		CyclicalReducer: cyclicalReducer,
		Logger:          logger,
	}

	if len(c.Reference.Columns) > 0 {
		delimiter, err := parseDelimiter(c.Reference.Delimiter)
		if err != nil {
			return scenario.Options{}, err
		}
		opts.ReferenceSeries, err = scenario.LoadReferenceSeries(scenario.ReferenceSource{
			Path:      c.Reference.Path,
			Delimiter: delimiter,
			Columns:   c.Reference.Columns,
		})
		if err != nil {
			return scenario.Options{}, err
		}
	}
	if c.DayAhead.Key != "" {
		delimiter, err := parseDelimiter(c.DayAhead.Delimiter)
		if err != nil {
			return scenario.Options{}, err
		}
		opts.DayAheadBaseline, opts.DayAheadTarget, err = scenario.LoadDayAhead(c.DayAhead.Path, delimiter,
			c.DayAhead.BaselineColumn, c.DayAhead.TargetColumn)
		if err != nil {
			return scenario.Options{}, err
		}
	}
	return opts, nil
}

func parseDelimiter(s string) (rune, error) {
	runes := []rune(s)
	switch len(runes) {
	case 0:
		return ',', nil
	case 1:
		return runes[0], nil
	default:
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
}
