package log

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	clog "github.com/charmbracelet/log"
)

// NewLogger builds the leveled logger handed to every component. level is a
// name accepted by charmbracelet/log ("debug", "info", "warn", "error").
func NewLogger(w io.Writer, level string) (*clog.Logger, error) {
	lvl, err := clog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := clog.NewWithOptions(w, clog.Options{
		Level:  lvl,
		Prefix: "title-sieve",
	})
	logger.SetStyles(levelStyles())
	return logger, nil
}

func levelStyles() *clog.Styles {
	styles := clog.DefaultStyles()

	styles.Levels[clog.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Bold(true).
		Foreground(lipgloss.Color("63"))

	styles.Levels[clog.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO ").
		Bold(true).
		Foreground(lipgloss.Color("86"))

	styles.Levels[clog.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN ").
		Bold(true).
		Foreground(lipgloss.Color("192"))

	styles.Levels[clog.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Bold(true).
		Foreground(lipgloss.Color("204"))

	return styles
}
