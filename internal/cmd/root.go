package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Digital-Shane/title-sieve/internal/config"
	"github.com/Digital-Shane/title-sieve/internal/log"
	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel   string
	configFile string
}

// newRootCmd builds the command tree. Commands are constructed per call so
// flag state never leaks between runs.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "title-sieve",
		Short: "Find the titles in a media library",
		Long: `title-sieve walks a media library, recognizes the identifier in every video
filename, groups multi-part releases into single titles and reports what it
could not identify.

Titles already present in the organized library can be skipped so only new
material is handed on for metadata lookup.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Read configuration from this file instead of ~/.title-sieve/config.json")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newExistingCmd(opts),
		newConfigCmd(opts),
		newHistoryCmd(opts),
	)
	return rootCmd
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration selected by --config.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath returns the file --config points at, or the default location.
func (o *globalOptions) configPath() (string, error) {
	if o.configFile != "" {
		return o.configFile, nil
	}
	return config.ConfigPath()
}

// logger builds the logger for a command. --log-level wins over the config.
func (o *globalOptions) logger(w io.Writer, cfg *config.Config) (*clog.Logger, error) {
	level := o.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	return log.NewLogger(w, level)
}
