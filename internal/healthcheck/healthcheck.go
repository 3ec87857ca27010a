package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-gflow/internal/config"
	"github.com/l3aro/go-gflow/pkg/cache"
	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/optimizer"
)

// ComponentStatus represents the health status of one part of the setup.
type ComponentStatus struct {
	Name   string
	Detail string
	Status string // "ready", "disabled", "error"
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Parser         ComponentStatus
	Optimizer      ComponentStatus
	Cache          ComponentStatus
}

// HasError reports whether any component failed.
func (r *HealthCheckResult) HasError() bool {
	return r.Parser.Status == "error" || r.Optimizer.Status == "error" || r.Cache.Status == "error"
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(ctx context.Context, cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Parser = checkParser(ctx)
	result.Optimizer = checkOptimizer(ctx, cfg)
	result.Cache = checkCache(cfg)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".gflow")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkParser parses a trivial method to make sure the Java grammar loads.
func checkParser(ctx context.Context) ComponentStatus {
	status := ComponentStatus{Name: "parser", Detail: "tree-sitter java"}
	if _, _, err := frontend.ParseSnippet(ctx, "int", "", "return 1;"); err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}
	status.Status = "ready"
	return status
}

// checkOptimizer validates the optimizer settings and runs them on a
// method whose optimized form is known.
func checkOptimizer(ctx context.Context, cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "optimizer"}

	var enabled []string
	for _, a := range config.KnownAnalyses {
		if cfg.Enabled(a) {
			enabled = append(enabled, a)
		}
	}
	if len(enabled) == 0 {
		status.Status = "disabled"
		status.Detail = "no analyses enabled"
		return status
	}
	status.Detail = strings.Join(enabled, ", ")

	if err := cfg.Validate(); err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	prog, _, err := frontend.ParseSnippet(ctx, "int", "", "int x = 1; return x;")
	if err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}
	if _, err := optimizer.NewDriver(optimizer.FromConfig(cfg)...).Run(ctx, prog); err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	status.Status = "ready"
	return status
}

// checkCache verifies the cache directory is writable and its file loads.
func checkCache(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "cache", Detail: cfg.Cache.Dir}

	if !cfg.Cache.Enabled {
		status.Status = "disabled"
		return status
	}

	if err := os.MkdirAll(cfg.Cache.Dir, 0755); err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("cannot create %s: %v", cfg.Cache.Dir, err)
		return status
	}
	check, err := os.CreateTemp(cfg.Cache.Dir, ".write-check-*")
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("%s is not writable: %v", cfg.Cache.Dir, err)
		return status
	}
	check.Close()
	os.Remove(check.Name())

	store, err := cache.Open(cfg.Cache.Dir, cfg.Cache.MaxEntries)
	if err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	status.Status = "ready"
	status.Detail = fmt.Sprintf("%s (%d entries)", cfg.Cache.Dir, store.Len())
	return status
}
