package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-gflow/internal/log"
)

// Analysis names accepted in optimizer.analyses.
const (
	AnalysisUnreachable = "unreachable"
	AnalysisConstants   = "constants"
	AnalysisCopy        = "copy"
	AnalysisLiveness    = "liveness"
)

// KnownAnalyses lists every analysis in the order the optimizer runs them.
var KnownAnalyses = []string{AnalysisUnreachable, AnalysisConstants, AnalysisCopy, AnalysisLiveness}

// Config holds all configuration for gflow
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Solver    SolverConfig    `yaml:"solver"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`

	// Workers bounds how many files are optimized concurrently. Zero means
	// one per CPU.
	Workers int `yaml:"workers" env:"GFLOW_WORKERS"`
}

// OptimizerConfig controls the optimization driver.
type OptimizerConfig struct {
	// MaxIterations bounds the dataflow/DCE rounds per program.
	MaxIterations int `yaml:"max_iterations" env:"GFLOW_MAX_ITERATIONS"`

	// Analyses enables individual analyses; see KnownAnalyses.
	Analyses []string `yaml:"analyses" env:"GFLOW_ANALYSES"`

	// DeadCodeElimination runs the cleanup pass after a changing round.
	DeadCodeElimination bool `yaml:"dead_code_elimination" env:"GFLOW_DCE"`
}

// SolverConfig controls the fixed-point solver.
type SolverConfig struct {
	// MaxSteps bounds node visits per solve; exceeding it aborts the
	// method as an internal error.
	MaxSteps int `yaml:"max_steps" env:"GFLOW_MAX_STEPS"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" env:"GFLOW_LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"GFLOW_LOG_JSON"`
}

// CacheConfig controls the optimized-output cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" env:"GFLOW_CACHE_ENABLED"`
	Dir        string `yaml:"dir" env:"GFLOW_CACHE_DIR"`
	MaxEntries int    `yaml:"max_entries" env:"GFLOW_CACHE_MAX_ENTRIES"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			MaxIterations:       10,
			Analyses:            append([]string(nil), KnownAnalyses...),
			DeadCodeElimination: true,
		},
		Solver: SolverConfig{
			MaxSteps: 1_000_000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        defaultCacheDir(),
			MaxEntries: 1000,
		},
		Workers: 0,
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".gflow", "cache")
	}
	return filepath.Join(dir, "gflow")
}

// GlobalConfigFilePath returns the global config file path (~/.gflow/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gflow", "config.yaml")
	}
	return filepath.Join(home, ".gflow", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.gflow/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".gflow", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gflow/config.yaml)
// 3. Global config (~/.gflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigFilePath(), ProjectConfigFilePath())
}

func load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{globalPath, projectPath} {
		if err := mergeFile(cfg, path, true); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, path, false); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile overlays the YAML file at path onto cfg. Fields absent from
// the file keep their current value.
func mergeFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GFLOW_MAX_ITERATIONS"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("GFLOW_MAX_ITERATIONS: %w", err)
		}
		cfg.Optimizer.MaxIterations = i
	}
	if v := os.Getenv("GFLOW_ANALYSES"); v != "" {
		cfg.Optimizer.Analyses = splitList(v)
	}
	if v := os.Getenv("GFLOW_DCE"); v != "" {
		cfg.Optimizer.DeadCodeElimination = parseBool(v)
	}
	if v := os.Getenv("GFLOW_MAX_STEPS"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("GFLOW_MAX_STEPS: %w", err)
		}
		cfg.Solver.MaxSteps = i
	}
	if v := os.Getenv("GFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GFLOW_LOG_JSON"); v != "" {
		cfg.Log.JSON = parseBool(v)
	}
	if v := os.Getenv("GFLOW_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("GFLOW_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("GFLOW_CACHE_MAX_ENTRIES"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("GFLOW_CACHE_MAX_ENTRIES: %w", err)
		}
		cfg.Cache.MaxEntries = i
	}
	if v := os.Getenv("GFLOW_WORKERS"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("GFLOW_WORKERS: %w", err)
		}
		cfg.Workers = i
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.Optimizer.MaxIterations <= 0 {
		return fmt.Errorf("optimizer.max_iterations must be positive")
	}
	for _, a := range c.Optimizer.Analyses {
		if !isKnownAnalysis(a) {
			return fmt.Errorf("invalid analysis: %s (must be one of %s)", a, strings.Join(KnownAnalyses, ", "))
		}
	}
	if c.Solver.MaxSteps <= 0 {
		return fmt.Errorf("solver.max_steps must be positive")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when the cache is enabled")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	return nil
}

// Enabled reports whether the named analysis is switched on.
func (c *Config) Enabled(analysis string) bool {
	for _, a := range c.Optimizer.Analyses {
		if a == analysis {
			return true
		}
	}
	return false
}

// Fingerprint summarizes every setting that affects optimizer output, for
// use in cache keys.
func (c *Config) Fingerprint() string {
	var enabled []string
	for _, a := range KnownAnalyses {
		if c.Enabled(a) {
			enabled = append(enabled, a)
		}
	}
	return fmt.Sprintf("iter=%d;steps=%d;dce=%t;analyses=%s",
		c.Optimizer.MaxIterations, c.Solver.MaxSteps, c.Optimizer.DeadCodeElimination, strings.Join(enabled, ","))
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger() *log.DefaultLogger {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.New(log.LoggerConfig{Level: level, JSONOutput: c.Log.JSON})
}

func isKnownAnalysis(name string) bool {
	for _, a := range KnownAnalyses {
		if a == name {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return i, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
