package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Digital-Shane/title-sieve/internal/config"
	"github.com/Digital-Shane/title-sieve/internal/library"
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the location of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration to the configuration file. An existing file
is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := config.DefaultConfig()
			if err := checkConfig(cfg); err != nil {
				return err
			}
			if err := cfg.SaveFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := checkConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}

	variablesCmd := &cobra.Command{
		Use:   "variables",
		Short: "List the placeholders usable in output_folder_pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range library.Variables {
				fmt.Fprintf(cmd.OutOrStdout(), "{%s}\t%s\n", v.Name, library.VariableHelp(v.Name))
			}
			return nil
		},
	}

	cmd.AddCommand(showCmd, pathCmd, initCmd, validateCmd, variablesCmd)
	return cmd
}

// checkConfig validates cfg including the output folder template.
func checkConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := library.ValidateTemplate(cfg.Summarizer.Path.OutputFolderPattern); err != nil {
		return fmt.Errorf("invalid output_folder_pattern: %w (see `title-sieve config variables`)", err)
	}
	return nil
}
