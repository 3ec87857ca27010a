package healthcheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l3aro/go-gflow/internal/config"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(context.Background(), nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Parser.Status != "ready" {
		t.Errorf("Parser.Status = %q, want ready (error: %s)", result.Parser.Status, result.Parser.Error)
	}
	if result.Optimizer.Status != "ready" {
		t.Errorf("Optimizer.Status = %q, want ready (error: %s)", result.Optimizer.Status, result.Optimizer.Error)
	}
	if result.Optimizer.Detail != "unreachable, constants, copy, liveness" {
		t.Errorf("Optimizer.Detail = %q", result.Optimizer.Detail)
	}
	if result.Cache.Status != "ready" {
		t.Errorf("Cache.Status = %q, want ready (error: %s)", result.Cache.Status, result.Cache.Error)
	}
	if !strings.Contains(result.Cache.Detail, "(0 entries)") {
		t.Errorf("Cache.Detail = %q, want entry count", result.Cache.Detail)
	}
	if result.HasError() {
		t.Error("HasError() = true, want false")
	}

	entries, err := os.ReadDir(cfg.Cache.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d leftover entries, want 0", len(entries))
	}
}

func TestCheckDisabledParts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Optimizer.Analyses = nil

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Cache.Status != "disabled" {
		t.Errorf("Cache.Status = %q, want disabled", result.Cache.Status)
	}
	if result.Optimizer.Status != "disabled" {
		t.Errorf("Optimizer.Status = %q, want disabled", result.Optimizer.Status)
	}
	if result.HasError() {
		t.Error("HasError() = true, want false")
	}
}

func TestCheckInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Solver.MaxSteps = 0

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Optimizer.Status != "error" {
		t.Errorf("Optimizer.Status = %q, want error", result.Optimizer.Status)
	}
	if !result.HasError() {
		t.Error("HasError() = false, want true")
	}
}

func TestCheckUnwritableCache(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(blocker, "cache")

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != "error" {
		t.Errorf("Cache.Status = %q, want error", result.Cache.Status)
	}
}

func TestScopeFromPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{filepath.Join(home, ".gflow", "config.yaml"), "global"},
		{filepath.Join(".gflow", "config.yaml"), "project"},
	}

	for _, tt := range tests {
		if got := scopeFromPath(tt.path); got != tt.want {
			t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
