package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-gflow/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a gflow configuration interactively",
	Long: `Guides you through setting up gflow step by step.
Creates a config file with the enabled analyses, optimizer limits, cache
and logging settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Optimizer ===
	analyses := append([]string(nil), cfg.Optimizer.Analyses...)
	maxIterations := strconv.Itoa(cfg.Optimizer.MaxIterations)
	dce := cfg.Optimizer.DeadCodeElimination

	options := make([]huh.Option[string], 0, len(config.KnownAnalyses))
	for _, a := range config.KnownAnalyses {
		options = append(options, huh.NewOption(a, a).Selected(true))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Analyses").
				Description("Dataflow analyses the optimizer runs").
				Options(options...).
				Value(&analyses),
			huh.NewInput().
				Title("Maximum optimizer rounds per file").
				Placeholder("10").
				Validate(positiveInt).
				Value(&maxIterations),
			huh.NewConfirm().
				Title("Dead code elimination").
				Description("Clean up after each round that changed a method?").
				Value(&dce),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Cache and logging ===
	cacheEnabled := cfg.Cache.Enabled
	cacheDir := cfg.Cache.Dir
	logLevel := cfg.Log.Level

	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Result cache").
				Description("Cache optimized output keyed by file content?").
				Value(&cacheEnabled),
			huh.NewInput().
				Title("Cache directory").
				Placeholder(cfg.Cache.Dir).
				Value(&cacheDir),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&logLevel),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.gflow/config.yaml)", "project"),
					huh.NewOption("Global (~/.gflow/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg.Optimizer.Analyses = analyses
	cfg.Optimizer.MaxIterations, _ = strconv.Atoi(strings.TrimSpace(maxIterations))
	cfg.Optimizer.DeadCodeElimination = dce
	cfg.Cache.Enabled = cacheEnabled
	if strings.TrimSpace(cacheDir) != "" {
		cfg.Cache.Dir = strings.TrimSpace(cacheDir)
	}
	cfg.Log.Level = logLevel

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Analyses: %s\n", strings.Join(cfg.Optimizer.Analyses, ", "))
	fmt.Printf("Max iterations: %d\n", cfg.Optimizer.MaxIterations)
	fmt.Printf("Dead code elimination: %t\n", cfg.Optimizer.DeadCodeElimination)
	if cfg.Cache.Enabled {
		fmt.Printf("Cache: %s\n", cfg.Cache.Dir)
	} else {
		fmt.Println("Cache: disabled")
	}
	fmt.Printf("Log level: %s\n", cfg.Log.Level)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	absPath, _ := filepath.Abs(configPath)
	fmt.Printf("Configuration saved to: %s\n", absPath)
	fmt.Printf("Settings fingerprint: %s\n", cfg.Fingerprint())
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
