package theme

import (
	"maps"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// IconSet maps report concepts (movie, failed, duplicate...) to glyphs.
type IconSet map[string]string

// Colors holds the palette shared by the progress screen and scan reports.
type Colors struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// BadgeKind selects the color of a report badge.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeWarning
	BadgeError
	BadgeMuted
)

// Theme bundles colors, the panel border and icons.
type Theme struct {
	colors   Colors
	border   lipgloss.Border
	icons    IconSet
	fallback IconSet
}

// Option configures a Theme during construction.
type Option func(*Theme)

// WithIconSet overrides the icon set. The map is copied.
func WithIconSet(set IconSet) Option {
	return func(t *Theme) {
		t.icons = maps.Clone(set)
	}
}

// WithColors overrides the palette.
func WithColors(colors Colors) Option {
	return func(t *Theme) {
		t.colors = colors
	}
}

// WithBorder overrides the panel border.
func WithBorder(border lipgloss.Border) Option {
	return func(t *Theme) {
		t.border = border
	}
}

// New constructs a Theme with optional overrides applied.
func New(opts ...Option) Theme {
	defaults := []Option{
		WithColors(Colors{
			Primary:    lipgloss.Color("#3a5a8c"),
			Secondary:  lipgloss.Color("#5a7aac"),
			Accent:     lipgloss.Color("#79a8c2"),
			Background: lipgloss.Color("#f8f8f8"),
			Muted:      lipgloss.Color("#9ba8c0"),
			Success:    lipgloss.Color("#5dc796"),
			Warning:    lipgloss.Color("#e0a84c"),
			Error:      lipgloss.Color("#f04c56"),
		}),
		WithBorder(lipgloss.RoundedBorder()),
		WithIconSet(defaultIconSet()),
	}

	t := Theme{fallback: maps.Clone(asciiIcons)}
	for _, opt := range append(defaults, opts...) {
		opt(&t)
	}
	if t.icons == nil {
		t.icons = defaultIconSet()
	}
	return t
}

// Default returns the default Theme configuration.
func Default() Theme {
	return New()
}

func (t Theme) Colors() Colors {
	return t.colors
}

// Icon returns a themed icon with ASCII fallback if unavailable.
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	if icon, ok := t.fallback[name]; ok {
		return icon
	}
	return ""
}

// HeaderStyle is used for screen and report titles.
func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(t.colors.Primary).
		Foreground(t.colors.Background).
		Align(lipgloss.Center)
}

// StatusBarStyle is used for the footer of the progress screen.
func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.colors.Secondary).
		Foreground(t.colors.Background).
		Padding(0, 1)
}

// PanelStyle frames the statistics block.
func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(t.border).
		BorderForeground(t.colors.Accent).
		Padding(1)
}

// PathStyle renders file paths in reports.
func (t Theme) PathStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors.Muted)
}

// BadgeStyle returns the badge style for the requested variant.
func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(t.colors.Background)

	switch kind {
	case BadgeSuccess:
		return base.Background(t.colors.Success)
	case BadgeWarning:
		return base.Background(t.colors.Warning)
	case BadgeError:
		return base.Background(t.colors.Error)
	case BadgeMuted:
		return base.Background(t.colors.Muted)
	default:
		return base.Background(t.colors.Accent)
	}
}

// ProgressGradient returns the gradient colors for progress bars.
func (t Theme) ProgressGradient() []string {
	return []string{string(t.colors.Primary), string(t.colors.Accent)}
}

// defaultIconSet chooses the best icon set for the current terminal.
func defaultIconSet() IconSet {
	if isLimitedTerminal() {
		return maps.Clone(asciiIcons)
	}
	return maps.Clone(emojiIcons)
}

// isLimitedTerminal detects environments where ASCII icons are preferable.
func isLimitedTerminal() bool {
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"movie":     "🎬",
	"slices":    "🎞",
	"failed":    "❌",
	"duplicate": "⚠️",
	"skipped":   "⏭",
	"existing":  "📚",
	"subtitle":  "📄",
	"folder":    "📁",
	"stats":     "📊",
}

var asciiIcons = IconSet{
	"movie":     "[M]",
	"slices":    "[S]",
	"failed":    "[!]",
	"duplicate": "[D]",
	"skipped":   "[-]",
	"existing":  "[=]",
	"subtitle":  "[T]",
	"folder":    "[/]",
	"stats":     "[*]",
}
