package cmd

import (
	"fmt"
	"slices"

	"github.com/Digital-Shane/title-sieve/internal/library"
	"github.com/spf13/cobra"
)

func newExistingCmd(g *globalOptions) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "existing",
		Short: "List the identifiers already in the organized library",
		Long: `Match the output folder pattern against the directories on disk and print the
identifier captured by {num} in every matching folder, one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger, err := g.logger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			if pattern == "" {
				pattern = cfg.Summarizer.Path.OutputFolderPattern
			}

			ids, err := library.ExistingIDs(pattern)
			if err != nil {
				return err
			}
			logger.Debug("matched library", "pattern", pattern, "count", len(ids))

			sorted := make([]string, 0, len(ids))
			for id := range ids {
				sorted = append(sorted, id)
			}
			slices.Sort(sorted)
			for _, id := range sorted {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Folder pattern to match (default from config)")
	return cmd
}
