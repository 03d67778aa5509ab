package cmd

import (
	"fmt"

	"github.com/Digital-Shane/title-sieve/internal/log"
	"github.com/Digital-Shane/title-sieve/internal/tui/theme"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scan sessions",
		Long: `List the session reports written by previous scans, newest first. Each report
is stored as JSON under ~/.title-sieve/logs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := log.ReadSessions(limit)
			if err != nil {
				return fmt.Errorf("failed to read log sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No scan sessions found.")
				return nil
			}

			th := theme.Default()
			for _, s := range sessions {
				meta := s.Metadata
				fmt.Fprintf(out, "%s %s %s\n", th.Icon("folder"), meta.Root,
					th.PathStyle().Render(humanize.Time(meta.Timestamp)))
				fmt.Fprintf(out, "    %d movies, %d unrecognized, %d conflicting, %d skipped  (%s)\n",
					meta.Movies, meta.Failed, meta.Duplicates, meta.Skipped, meta.SessionID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of sessions to show (0 for all)")
	return cmd
}
