package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/garagon/symscan/internal/config"
)

var (
	flagConfig     string
	flagLogLevel   string
	flagPresetsDir string
)

var rootCmd = &cobra.Command{
	Use:   "symscan",
	Short: "Find unwanted symbol references in static archives",
	Long: `symscan walks a build tree for static archives, extracts each one with ar,
lists the symbols of every object member with nm and reports the members that
reference one of the target symbols (dynamic loading, threading, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: .symscan.yml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level for warnings on stderr (debug, info, warn, error; default warn)")
	rootCmd.PersistentFlags().StringVar(&flagPresetsDir, "presets-dir", "", "Additional presets directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file, then overlays .env and SYMSCAN_* variables
// and the persistent flags. Command-specific flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	config.LoadDotEnv()

	var cfg config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyEnv(&cfg, os.Getenv)

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("presets-dir") {
		cfg.PresetsDir = flagPresetsDir
	}
	return cfg, nil
}
