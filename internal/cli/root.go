package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/engram-oss/engram/internal/agent"
	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/telemetry"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Embedded memory for software agents",
	Long: `engram - Durable, searchable memory for software agents.

Every agent gets its own namespaced store. Memories are plain text with
tags and properties, found by substring search and ranked by a forgetting
curve: what an agent keeps using stays close, what it ignores fades.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./engram.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("engram")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ENGRAM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadProjectConfig resolves the configuration for the current invocation,
// honoring --config when given.
func loadProjectConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load(".")
}

// openAgent loads the project configuration and opens the named agent's
// runtime for a single command invocation. The returned cleanup closes the
// runtime and the logger.
func openAgent(agentID, op string) (*agent.Runtime, func(), error) {
	cfg, err := loadProjectConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := telemetry.NewLoggerWith(cfg.Logging.Level, cfg.Logging.Format, verbose)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	ctx := telemetry.ContextWithTrace(context.Background(),
		telemetry.NewTraceContext(agentID).WithOp(op))

	r, err := agent.NewBuilder().
		ID(agentID).
		Config(cfg).
		Logger(logger.WithTrace(ctx)).
		Build()
	if err != nil {
		logger.Close()
		return nil, nil, err
	}

	cleanup := func() {
		r.Close()
		logger.Close()
	}
	return r, cleanup, nil
}
