package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Digital-Shane/title-sieve/internal/avid"
	"github.com/Digital-Shane/title-sieve/internal/config"
	"github.com/Digital-Shane/title-sieve/internal/core"
	"github.com/Digital-Shane/title-sieve/internal/library"
	"github.com/Digital-Shane/title-sieve/internal/log"
	"github.com/Digital-Shane/title-sieve/internal/scan"
	"github.com/Digital-Shane/title-sieve/internal/subtitle"
	"github.com/Digital-Shane/title-sieve/internal/tui/progress"
	"github.com/Digital-Shane/title-sieve/internal/tui/theme"
	tea "github.com/charmbracelet/bubbletea"
	clog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// errScanCancelled is returned when the user leaves the progress screen
// before the scan finishes.
var errScanCancelled = errors.New("scan cancelled")

type scanOptions struct {
	noProgress   bool
	skipExisting bool
	jsonOutput   bool
	preview      bool
}

// movieReport is one movie as printed by the scan command.
type movieReport struct {
	scan.Movie
	Size     int64  `json:"size"`
	Subtitle string `json:"subtitle,omitempty"`
	// Destination and Remaining are only set in preview mode.
	Destination string `json:"destination,omitempty"`
	Remaining   *int   `json:"remaining_path_length,omitempty"`
}

// scanReport is the scan result after library filtering and deduplication.
type scanReport struct {
	Root       string              `json:"root"`
	Movies     []movieReport       `json:"movies"`
	Failed     []scan.FailedItem   `json:"failed"`
	Duplicates map[string][]string `json:"duplicates"`
	Skipped    []string            `json:"skipped"`
	Existing   []scan.Movie        `json:"existing"`
	Collapsed  []scan.Movie        `json:"collapsed"`

	duplicateOrder []string
}

func newScanCmd(g *globalOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a library and list the titles found",
		Long: `Walk root (default: the current directory), recognize the identifier of every
video and group multi-part releases into single titles.

Files that could not be identified, identifiers claimed by several unrelated
files and small files that joined no title are listed after the titles.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScanCommand(cmd, args, g, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Do not show the progress screen")
	cmd.Flags().BoolVar(&opts.skipExisting, "skip-existing", false, "Skip titles already present in the organized library")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Show the destination folder of every title")
	return cmd
}

func runScanCommand(cmd *cobra.Command, args []string, g *globalOptions, opts *scanOptions) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := g.logger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	ctx := cmd.Context()
	ids := avid.NewExtractor()
	res, err := runScanner(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, root, ids, logger, opts)
	if err != nil {
		return err
	}

	finder := subtitle.NewFinder(subtitle.WithIDFunc(ids.DVDID))
	report, err := buildReport(ctx, cfg, res, opts, finder, logger)
	if err != nil {
		return err
	}
	logger.Debug("identifier extraction", "names", ids.Cached(), "subtitle_dirs", finder.Cached())

	if cfg.EnableLogging {
		recordSession(args, report, cfg, logger)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report, theme.Default())
	return nil
}

// useProgressScreen reports whether the progress screen can be drawn on out.
func useProgressScreen(out io.Writer, opts *scanOptions) bool {
	if opts.noProgress || opts.jsonOutput {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runScanner scans root, behind the progress screen when out is a terminal.
// While the screen is up, log output is held back and written to errOut once
// the screen is gone.
func runScanner(ctx context.Context, out, errOut io.Writer, cfg *config.Config, root string, ids scan.Extractor, logger *clog.Logger, opts *scanOptions) (*scan.Result, error) {
	if !useProgressScreen(out, opts) {
		s, err := scan.New(cfg.Scanner, scan.WithLogger(logger), scan.WithExtractor(ids))
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx, root)
	}

	held := &lockedBuffer{}
	scanLogger := logger.With()
	scanLogger.SetOutput(held)
	defer held.WriteTo(errOut)

	scanFn := progress.ScannerFunc(func(report func(scan.Progress)) (*scan.Scanner, error) {
		return scan.New(cfg.Scanner, scan.WithLogger(scanLogger), scan.WithExtractor(ids), scan.WithProgress(report))
	})
	model := progress.NewScanProgressModel(ctx, root, scanFn, theme.Default())
	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(out)).Run(); err != nil {
		return nil, fmt.Errorf("progress screen: %w", err)
	}
	if !model.Done() {
		return nil, errScanCancelled
	}
	return model.Result(), model.Err()
}

// buildReport drops titles already in the library when asked, collapses
// cosmetic duplicates and attaches sizes, subtitles and destinations.
func buildReport(ctx context.Context, cfg *config.Config, res *scan.Result, opts *scanOptions, finder *subtitle.Finder, logger *clog.Logger) (*scanReport, error) {
	report := &scanReport{
		Root:           res.Root,
		Failed:         res.Failed,
		Duplicates:     res.Duplicates,
		Skipped:        res.Skipped,
		duplicateOrder: res.DuplicateOrder,
	}

	pathCfg := cfg.Summarizer.Path
	movies := res.Movies
	if opts.skipExisting {
		existing, err := library.ExistingIDs(pathCfg.OutputFolderPattern)
		if err != nil {
			return nil, fmt.Errorf("failed to read existing library: %w", err)
		}
		movies, report.Existing = scan.FilterExisting(movies, existing)
		for _, m := range report.Existing {
			logger.Info("already in library", "id", m.ID())
		}
	}

	movies, report.Collapsed = scan.Dedupe(movies)
	for _, m := range report.Collapsed {
		logger.Warn("duplicate title, keeping the first copy", "id", m.ID(), "files", m.Files)
	}

	profile, err := core.ResolveProfile(pathCfg.FilesystemProfile)
	if err != nil {
		return nil, err
	}

	report.Movies = make([]movieReport, 0, len(movies))
	for _, m := range movies {
		r := movieReport{Movie: m, Size: core.TotalSize(m.Files)}

		if m.DVDID != "" && len(m.Files) > 0 {
			sub, ok, err := finder.Find(ctx, filepath.Dir(m.Files[0]), m.DVDID)
			switch {
			case err != nil && ctx.Err() != nil:
				return nil, ctx.Err()
			case err != nil:
				logger.Warn("subtitle lookup failed", "id", m.DVDID, "err", err)
			case ok:
				r.Subtitle = sub
			}
		}

		if opts.preview {
			dest := library.Render(pathCfg.OutputFolderPattern, previewValues(m), profile)
			remaining := core.RemainingPathLength(dest, pathCfg.LengthByByte, pathCfg.LengthMaximum)
			r.Destination, r.Remaining = dest, &remaining
			if remaining < 0 {
				logger.Warn("destination path too long", "id", m.ID(), "over", -remaining)
			}
		}
		report.Movies = append(report.Movies, r)
	}
	return report, nil
}

// previewValues holds the template values known before any metadata lookup.
func previewValues(m scan.Movie) map[string]string {
	values := map[string]string{library.NumVariable: m.ID() + m.Attr}
	if m.CID != "" {
		values["cid"] = m.CID
	}
	return values
}

// recordSession stores the scan outcome for the history command. Failures
// are logged and never fail the scan.
func recordSession(args []string, report *scanReport, cfg *config.Config, logger *clog.Logger) {
	session, err := log.NewSession("scan", args, report.Root)
	if err != nil {
		logger.Warn("could not start session report", "err", err)
		return
	}

	session.SetMovies(len(report.Movies))
	for _, f := range report.Failed {
		session.Record(log.EntryFailed, "", f.Files, f.Reason)
	}
	for _, id := range report.duplicateOrder {
		session.Record(log.EntryDuplicate, id, report.Duplicates[id], "")
	}
	for _, p := range report.Skipped {
		session.Record(log.EntrySkipped, "", []string{p}, "below minimum size")
	}
	for _, m := range report.Existing {
		session.Record(log.EntryExisting, m.ID(), m.Files, "")
	}
	for _, m := range report.Collapsed {
		session.Record(log.EntryCollapsed, m.ID(), m.Files, "")
	}

	path, err := session.Write()
	if err != nil {
		logger.Warn("could not write session report", "err", err)
		return
	}
	logger.Debug("session report written", "path", path)

	removed, err := log.CleanupOldLogs(cfg.LogRetentionDays)
	if err != nil {
		logger.Warn("could not clean up old session reports", "err", err)
	} else if removed > 0 {
		logger.Debug("removed old session reports", "count", removed)
	}
}

// lockedBuffer collects log output from the scan goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}
