// Package commands provides the CLI commands for the gflow tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-gflow/internal/config"
	"github.com/l3aro/go-gflow/internal/log"
)

var (
	// appConfig is loaded before any subcommand runs.
	appConfig *config.Config
	logger    log.Logger = log.Nop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gflow",
	Short: "gflow - Dataflow analysis and optimization for Java methods",
	Long: `gflow builds control flow graphs for Java methods, solves dataflow
analyses over them and rewrites the code with the results.

Commands:
  cfg         Print the control flow graph of a method
  analyze     Print the facts one analysis computes on every edge
  optimize    Optimize Java files and print the rewritten methods
  init        Create a configuration file interactively
  doctor      Check configuration, parser and cache

Use "gflow [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	var err error
	if configPath != "" {
		appConfig, err = config.LoadFromFile(configPath)
	} else {
		appConfig, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		appConfig.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		appConfig.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}
	if err := appConfig.Validate(); err != nil {
		return err
	}

	logger = appConfig.NewLogger()
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.gflow/config.yaml, then ./.gflow/config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(optimizeCmd)
	RootCmd.AddCommand(initCmd)
}
