package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/avid"
	"github.com/Digital-Shane/title-sieve/internal/core"
	"github.com/Digital-Shane/title-sieve/internal/scan"
	"github.com/Digital-Shane/title-sieve/internal/tui/theme"
	"github.com/mattn/go-runewidth"
)

// reportWidth bounds the width of report lines.
const reportWidth = 100

// printReport renders a human readable scan report.
func printReport(w io.Writer, r *scanReport, th theme.Theme) {
	fmt.Fprintln(w, th.HeaderStyle().Width(reportWidth).Render("Scan Report: "+truncatePath(r.Root, reportWidth-14)))

	for _, m := range r.Movies {
		printMovie(w, r.Root, m, th)
	}

	if len(r.Failed) > 0 {
		printSection(w, th, "failed", theme.BadgeError, "Unrecognized", len(r.Failed))
		for _, f := range r.Failed {
			for _, p := range f.Files {
				fmt.Fprintf(w, "    %s\n", th.PathStyle().Render(relPath(r.Root, p, reportWidth-4)))
			}
		}
	}

	if len(r.duplicateOrder) > 0 {
		printSection(w, th, "duplicate", theme.BadgeWarning, "Conflicting identifiers", len(r.duplicateOrder))
		for _, id := range r.duplicateOrder {
			fmt.Fprintf(w, "  %s\n", id)
			for _, p := range r.Duplicates[id] {
				fmt.Fprintf(w, "    %s\n", th.PathStyle().Render(relPath(r.Root, p, reportWidth-4)))
			}
		}
	}

	if len(r.Skipped) > 0 {
		printSection(w, th, "skipped", theme.BadgeMuted, "Below minimum size", len(r.Skipped))
		for _, p := range r.Skipped {
			fmt.Fprintf(w, "    %s\n", th.PathStyle().Render(relPath(r.Root, p, reportWidth-4)))
		}
	}

	if len(r.Existing) > 0 {
		printSection(w, th, "existing", theme.BadgeInfo, "Already in library", len(r.Existing))
		printIDs(w, r.Existing)
	}

	if len(r.Collapsed) > 0 {
		printSection(w, th, "duplicate", theme.BadgeWarning, "Duplicate copies ignored", len(r.Collapsed))
		for _, m := range r.Collapsed {
			fmt.Fprintf(w, "  %s\n", m.ID()+m.Attr)
			for _, p := range m.Files {
				fmt.Fprintf(w, "    %s\n", th.PathStyle().Render(relPath(r.Root, p, reportWidth-4)))
			}
		}
	}

	fmt.Fprintf(w, "\n%s %d movies, %d unrecognized, %d conflicting, %d skipped",
		th.Icon("stats"), len(r.Movies), len(r.Failed), len(r.duplicateOrder), len(r.Skipped))
	if len(r.Existing) > 0 {
		fmt.Fprintf(w, ", %d already in library", len(r.Existing))
	}
	fmt.Fprintln(w)
}

func printMovie(w io.Writer, root string, m movieReport, th theme.Theme) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		th.Icon("movie"),
		th.BadgeStyle(sourceBadge(m.Source)).Render(string(m.Source)),
		m.ID()+m.Attr,
		th.PathStyle().Render(core.FormatSize(m.Size)))
	if m.CID != "" && m.DVDID != "" && m.CID != m.DVDID {
		fmt.Fprintf(w, "    cid: %s\n", m.CID)
	}

	if len(m.Files) > 1 {
		fmt.Fprintf(w, "    %s %d slices\n", th.Icon("slices"), len(m.Files))
	}
	for _, p := range m.Files {
		fmt.Fprintf(w, "    %s\n", th.PathStyle().Render(relPath(root, p, reportWidth-4)))
	}
	if m.Subtitle != "" {
		fmt.Fprintf(w, "    %s %s\n", th.Icon("subtitle"), relPath(root, m.Subtitle, reportWidth-8))
	}
	if m.Destination != "" {
		line := fmt.Sprintf("    -> %s", truncatePath(m.Destination, reportWidth-24))
		if m.Remaining != nil {
			line += fmt.Sprintf(" (%d left)", *m.Remaining)
		}
		if m.Remaining != nil && *m.Remaining < 0 {
			line = th.BadgeStyle(theme.BadgeError).Render("too long") + line
		}
		fmt.Fprintln(w, line)
	}
}

func printSection(w io.Writer, th theme.Theme, icon string, kind theme.BadgeKind, title string, n int) {
	fmt.Fprintf(w, "\n%s %s\n", th.Icon(icon), th.BadgeStyle(kind).Render(fmt.Sprintf("%s (%d)", title, n)))
}

func printIDs(w io.Writer, movies []scan.Movie) {
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.ID() + m.Attr
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(ids, ", "))
}

func sourceBadge(s avid.Source) theme.BadgeKind {
	switch s {
	case avid.SourceNormal:
		return theme.BadgeSuccess
	case avid.SourceCID:
		return theme.BadgeInfo
	default:
		return theme.BadgeWarning
	}
}

// relPath shows path relative to root, truncated to width cells.
func relPath(root, path string, width int) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		path = rel
	}
	return truncatePath(path, width)
}

func truncatePath(path string, width int) string {
	return runewidth.Truncate(path, max(width, 10), "…")
}
