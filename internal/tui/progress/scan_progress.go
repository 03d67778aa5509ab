package progress

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/scan"
	"github.com/Digital-Shane/title-sieve/internal/tui/theme"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ScanFunc runs a scan of root and reports progress through report.
type ScanFunc func(ctx context.Context, root string, report func(scan.Progress)) (*scan.Result, error)

// ScannerFunc adapts a configured scanner factory to a ScanFunc.
func ScannerFunc(newScanner func(report func(scan.Progress)) (*scan.Scanner, error)) ScanFunc {
	return func(ctx context.Context, root string, report func(scan.Progress)) (*scan.Result, error) {
		s, err := newScanner(report)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx, root)
	}
}

// ScanProgressModel shows a full-screen progress UI while a library is
// scanned. Once it quits the caller reads Result and Err.
type ScanProgressModel struct {
	root       string
	scanFn     ScanFunc
	totalRoots int

	// progress as last reported by the scan goroutine
	processedRoots int
	dirs           int
	videos         int
	current        string
	done           bool
	quitting       bool

	width  int
	height int

	result *scan.Result
	err    error

	progress progress.Model
	msgCh    chan tea.Msg
	ctx      context.Context
	cancel   context.CancelFunc

	theme theme.Theme
}

// scanProgressMsg carries a progress snapshot from the scan goroutine.
type scanProgressMsg struct {
	p         scan.Progress
	processed int
}

// scanCompleteMsg signals completion.
type scanCompleteMsg struct {
	result *scan.Result
	err    error
}

// NewScanProgressModel creates a model and pre computes the number of top
// level entries used as the progress denominator.
func NewScanProgressModel(ctx context.Context, root string, scanFn ScanFunc, th theme.Theme) *ScanProgressModel {
	entries, _ := os.ReadDir(root)
	total := max(len(entries), 1)
	gradient := th.ProgressGradient()
	p := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	p.Width = 50
	ctx, cancel := context.WithCancel(ctx)
	return &ScanProgressModel{
		root:       root,
		scanFn:     scanFn,
		totalRoots: total,
		width:      80,
		height:     12,
		progress:   p,
		msgCh:      make(chan tea.Msg, 64),
		ctx:        ctx,
		cancel:     cancel,
		theme:      th,
	}
}

// Init starts the scan in the background.
func (m *ScanProgressModel) Init() tea.Cmd {
	go m.scanAsync()
	return m.waitForMsg()
}

func (m *ScanProgressModel) waitForMsg() tea.Cmd { return func() tea.Msg { return <-m.msgCh } }

func (m *ScanProgressModel) scanAsync() {
	seen := make(map[string]struct{})
	res, err := m.scanFn(m.ctx, m.root, func(p scan.Progress) {
		if p.TopLevel != "" {
			seen[p.TopLevel] = struct{}{}
		}
		// Snapshots are cumulative, so dropping one under load loses nothing.
		select {
		case m.msgCh <- scanProgressMsg{p: p, processed: len(seen)}:
		default:
		}
	})
	// Nobody reads msgCh once the user quit, so give up when cancelled.
	select {
	case m.msgCh <- scanCompleteMsg{result: res, err: err}:
	case <-m.ctx.Done():
	}
}

// Update processes Bubble Tea messages.
func (m *ScanProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
	case scanProgressMsg:
		m.processedRoots = msg.processed
		m.dirs, m.videos = msg.p.Dirs, msg.p.Videos
		m.current = msg.p.Path
		ratio := math.Min(float64(m.processedRoots)/float64(m.totalRoots), 1)
		cmd := m.progress.SetPercent(ratio)
		return m, tea.Batch(cmd, m.waitForMsg())
	case scanCompleteMsg:
		if m.quitting {
			return m, nil
		}
		m.result, m.err = msg.result, msg.err
		m.done = true
		m.cancel()
		m.progress.SetPercent(1)
		return m, tea.Quit
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// View renders the progress UI.
func (m *ScanProgressModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	percent := 0
	if m.totalRoots > 0 {
		percent = 100 * m.processedRoots / m.totalRoots
	}

	current := m.current
	if rel, err := filepath.Rel(m.root, current); err == nil && current != "" {
		current = rel
	}
	current = runewidth.Truncate(current, max(m.width-12, 10), "…")

	infoLines := []string{
		fmt.Sprintf("Entries scanned: %d/%d  Videos found: %d", m.processedRoots, m.totalRoots, m.videos),
		fmt.Sprintf("Current: %s", current),
	}
	statsLines := []string{
		fmt.Sprintf("%s Top-level entries: %d", m.theme.Icon("folder"), m.totalRoots),
		fmt.Sprintf("%s Directories walked: %d", m.theme.Icon("folder"), m.dirs),
		fmt.Sprintf("%s Videos found: %d", m.theme.Icon("movie"), m.videos),
		fmt.Sprintf("%s Progress: %d%%", m.theme.Icon("stats"), percent),
	}

	panel := m.theme.PanelStyle()
	panelWidth := max(m.width-panel.GetHorizontalFrameSize(), 0)

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render("Scanning Media Library"),
		m.progress.View(),
		strings.Join(infoLines, "\n"),
		panel.Width(panelWidth).Render(strings.Join(statsLines, "\n")),
		m.theme.StatusBarStyle().Width(m.width).Render("Scanning... esc to cancel"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Result returns the scan result, or nil when the scan did not finish.
func (m *ScanProgressModel) Result() *scan.Result { return m.result }

// Err returns any scan error.
func (m *ScanProgressModel) Err() error { return m.err }

// Done reports whether the scan ran to completion.
func (m *ScanProgressModel) Done() bool { return m.done }
