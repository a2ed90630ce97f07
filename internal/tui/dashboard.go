// Package tui provides the live Bubble Tea dashboard for API call metrics.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/metrics"
)

const refreshInterval = 2 * time.Second

// Snapshot is one refresh of the metrics history.
type Snapshot struct {
	Aggregates map[string]metrics.Aggregate
	Recent     []metrics.CallRecord
	CallCount  int
}

// Loader fetches a fresh Snapshot. The dashboard polls it periodically
// so concurrent generator runs show up while the view is open.
type Loader func() (Snapshot, error)

type snapshotMsg struct {
	snap Snapshot
	err  error
}

type tickMsg time.Time

// Dashboard is the root Bubble Tea model for `metrics --live`.
type Dashboard struct {
	loader  Loader
	spin    spinner.Model
	snap    Snapshot
	loaded  bool
	loadErr error
	width   int
	height  int
}

func NewDashboard(loader Loader) Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)
	return Dashboard{loader: loader, spin: s}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spin.Tick, d.load())
}

func (d Dashboard) load() tea.Cmd {
	return func() tea.Msg {
		snap, err := d.loader()
		return snapshotMsg{snap: snap, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return d, tea.Quit
		case "r":
			return d, d.load()
		}
		return d, nil

	case snapshotMsg:
		d.loaded = true
		d.loadErr = msg.err
		if msg.err == nil {
			d.snap = msg.snap
		}
		return d, tick()

	case tickMsg:
		return d, d.load()

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d Dashboard) View() string {
	var b strings.Builder
	b.WriteString(cli.RenderTitle("API Call Metrics"))
	b.WriteString("\n\n")

	if !d.loaded {
		b.WriteString(fmt.Sprintf("  %s loading metrics history...\n", d.spin.View()))
		return b.String()
	}
	if d.loadErr != nil {
		b.WriteString(cli.Error(fmt.Sprintf("loading metrics: %v", d.loadErr)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(d.renderSummary())
	b.WriteString("\n")
	b.WriteString(d.renderAggregates())
	b.WriteString("\n")
	b.WriteString(d.renderRecent())
	b.WriteString("\n")

	help := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	b.WriteString(help.Render("  r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (d Dashboard) renderSummary() string {
	var total, ok, failed, cached, limited int
	var dur time.Duration
	for _, agg := range d.snap.Aggregates {
		total += agg.TotalCalls
		ok += agg.SuccessfulCalls
		failed += agg.FailedCalls
		cached += agg.CacheHits
		limited += agg.RateLimitHits
		dur += agg.TotalDuration
	}

	rate := 0.0
	if total > 0 {
		rate = float64(ok) / float64(total)
	}
	avg := time.Duration(0)
	if total > 0 {
		avg = dur / time.Duration(total)
	}

	return cli.RenderTable(cli.Table{
		Title:   "Summary",
		Headers: []string{"Calls", "Success", "Failed", "Success rate", "Avg latency", "Cache hits", "Rate limited", "Stored"},
		Rows: [][]string{{
			cli.FormatNumber(int64(total)),
			cli.FormatNumber(int64(ok)),
			cli.FormatNumber(int64(failed)),
			cli.FormatPercent(rate),
			cli.FormatDuration(avg),
			cli.FormatNumber(int64(cached)),
			cli.FormatNumber(int64(limited)),
			cli.FormatNumber(int64(d.snap.CallCount)),
		}},
	})
}

func (d Dashboard) renderAggregates() string {
	keys := make([]string, 0, len(d.snap.Aggregates))
	for k := range d.snap.Aggregates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		agg := d.snap.Aggregates[k]
		rows = append(rows, []string{
			k,
			cli.FormatNumber(int64(agg.TotalCalls)),
			cli.FormatNumber(int64(agg.FailedCalls)),
			cli.FormatDuration(agg.AvgDuration),
			cli.FormatNumber(int64(agg.CacheHits)),
			cli.FormatNumber(int64(agg.RateLimitHits)),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"no calls recorded yet", "", "", "", "", ""})
	}

	return cli.RenderTable(cli.Table{
		Title:   "By provider and operation",
		Headers: []string{"Key", "Calls", "Failed", "Avg", "Cached", "Limited"},
		Rows:    rows,
	})
}

func (d Dashboard) renderRecent() string {
	rows := make([][]string, 0, len(d.snap.Recent))
	for _, r := range d.snap.Recent {
		status := "ok"
		switch {
		case r.RateLimited:
			status = "rate limited"
		case !r.Success:
			status = "failed"
		case r.Cached:
			status = "cached"
		}
		rows = append(rows, []string{
			r.StartTime.Local().Format("15:04:05"),
			metrics.FormatKey(r.Provider, r.Operation),
			status,
			cli.FormatDuration(r.Duration),
			cli.Truncate(r.ErrorMessage, 32),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "-", "-", "-", "-"})
	}

	return cli.RenderTable(cli.Table{
		Title:   "Recent calls",
		Headers: []string{"Time", "Key", "Status", "Duration", "Error"},
		Rows:    rows,
	})
}

// Run starts the dashboard and blocks until the user quits.
func Run(loader Loader) error {
	p := tea.NewProgram(NewDashboard(loader), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
