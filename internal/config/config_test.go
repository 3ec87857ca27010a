package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"MaxIterations", cfg.Optimizer.MaxIterations, 10},
		{"DeadCodeElimination", cfg.Optimizer.DeadCodeElimination, true},
		{"Analyses", strings.Join(cfg.Optimizer.Analyses, ","), "unreachable,constants,copy,liveness"},
		{"MaxSteps", cfg.Solver.MaxSteps, 1_000_000},
		{"LogLevel", cfg.Log.Level, "info"},
		{"LogJSON", cfg.Log.JSON, false},
		{"CacheEnabled", cfg.Cache.Enabled, true},
		{"CacheMaxEntries", cfg.Cache.MaxEntries, 1000},
		{"Workers", cfg.Workers, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:        "zero iterations",
			mutate:      func(c *Config) { c.Optimizer.MaxIterations = 0 },
			errContains: "max_iterations",
		},
		{
			name:        "unknown analysis",
			mutate:      func(c *Config) { c.Optimizer.Analyses = []string{"constants", "inlining"} },
			errContains: "invalid analysis: inlining",
		},
		{
			name:        "negative steps",
			mutate:      func(c *Config) { c.Solver.MaxSteps = -1 },
			errContains: "max_steps",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Log.Level = "chatty" },
			errContains: "log.level",
		},
		{
			name:        "cache without dir",
			mutate:      func(c *Config) { c.Cache.Dir = "" },
			errContains: "cache.dir",
		},
		{
			name: "disabled cache without dir",
			mutate: func(c *Config) {
				c.Cache.Enabled = false
				c.Cache.Dir = ""
			},
		},
		{
			name:        "negative workers",
			mutate:      func(c *Config) { c.Workers = -2 },
			errContains: "workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "home", ".gflow", "config.yaml")
	project := filepath.Join(dir, "project", ".gflow", "config.yaml")

	writeFile(t, global, `
optimizer:
  max_iterations: 3
log:
  level: debug
cache:
  max_entries: 5
`)
	writeFile(t, project, `
optimizer:
  max_iterations: 4
  analyses: [constants, liveness]
`)
	t.Setenv("GFLOW_CACHE_MAX_ENTRIES", "7")

	cfg, err := load(global, project)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Optimizer.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4 (project overrides global)", cfg.Optimizer.MaxIterations)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug (from global)", cfg.Log.Level)
	}
	if cfg.Cache.MaxEntries != 7 {
		t.Errorf("Cache.MaxEntries = %d, want 7 (env overrides files)", cfg.Cache.MaxEntries)
	}
	if !cfg.Optimizer.DeadCodeElimination {
		t.Error("DeadCodeElimination should keep its default")
	}
	if cfg.Enabled(AnalysisCopy) || !cfg.Enabled(AnalysisLiveness) {
		t.Errorf("Analyses = %v", cfg.Optimizer.Analyses)
	}
}

func TestLoadMissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Optimizer.MaxIterations != DefaultConfig().Optimizer.MaxIterations {
		t.Errorf("MaxIterations = %d", cfg.Optimizer.MaxIterations)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "optimizer: [1, 2")

	if _, err := LoadFromFile(bad); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("LoadFromFile(bad) = %v", err)
	}
	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromFile(missing) should fail")
	}

	t.Setenv("GFLOW_MAX_STEPS", "lots")
	if _, err := load(filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")); err == nil {
		t.Error("load() should reject a non-numeric GFLOW_MAX_STEPS")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GFLOW_ANALYSES", "constants, copy")
	t.Setenv("GFLOW_DCE", "no")
	t.Setenv("GFLOW_LOG_JSON", "yes")
	t.Setenv("GFLOW_WORKERS", "3")

	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(cfg.Optimizer.Analyses, ","); got != "constants,copy" {
		t.Errorf("Analyses = %q", got)
	}
	if cfg.Optimizer.DeadCodeElimination {
		t.Error("DeadCodeElimination should be off")
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON should be on")
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Optimizer.MaxIterations = 2
	cfg.Cache.Dir = "/tmp/gflow-test"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Optimizer.MaxIterations != 2 || loaded.Cache.Dir != "/tmp/gflow-test" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestFingerprint(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Cache.MaxEntries = 1

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("cache settings must not change the fingerprint")
	}

	b.Optimizer.Analyses = []string{AnalysisLiveness, AnalysisConstants}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("analyses must change the fingerprint")
	}
	want := "iter=10;steps=1000000;dce=true;analyses=constants,liveness"
	if got := b.Fingerprint(); got != want {
		t.Errorf("Fingerprint() = %q, want %q", got, want)
	}
}
