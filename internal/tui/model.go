package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vid2audio/internal/converter"
	"vid2audio/internal/processor"
)

type fileState struct {
	percent       int
	indeterminate bool
	ticks         int
}

type Model struct {
	updates   <-chan processor.ProgressUpdate
	started   time.Time
	width     int
	total     int
	done      int
	succeeded int
	skipped   int
	failed    int
	active    map[string]*fileState
	quitting  bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	return Model{updates: updates, started: time.Now(), active: make(map[string]*fileState)}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m = m.apply(processor.ProgressUpdate(msg))
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		// Quitting the view cancels the batch in the caller.
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

// apply folds one update into the model.
func (m Model) apply(u processor.ProgressUpdate) Model {
	m.total += u.TotalDelta
	if u.Path == "" {
		return m
	}

	active := make(map[string]*fileState, len(m.active)+1)
	for k, v := range m.active {
		cp := *v
		active[k] = &cp
	}
	m.active = active

	switch {
	case u.Started:
		m.active[u.Path] = &fileState{}
	case u.Finished:
		delete(m.active, u.Path)
		m.done++
		switch u.Status {
		case converter.StatusSucceeded:
			m.succeeded++
		case converter.StatusSkippedExists:
			m.skipped++
		default:
			m.failed++
		}
	default:
		st, ok := m.active[u.Path]
		if !ok {
			return m
		}
		st.ticks++
		if u.Indeterminate {
			st.indeterminate = true
		} else if u.Percent > st.percent {
			st.percent = u.Percent
			st.indeterminate = false
		}
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	elapsed := time.Since(m.started).Round(time.Second)

	lines := []string{
		titleStyle.Render("vid2audio"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total)) +
			successStyle.Render(fmt.Sprintf("  ok:%d", m.succeeded)) +
			warnStyle.Render(fmt.Sprintf("  skipped:%d", m.skipped)) +
			errorStyle.Render(fmt.Sprintf("  failed:%d", m.failed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	paths := make([]string, 0, len(m.active))
	for p := range m.active {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		lines = append(lines, renderFile(p, m.active[p], barWidth/2))
	}

	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)))
	return strings.Join(lines, "\n")
}

func renderFile(path string, st *fileState, width int) string {
	name := labelStyle.Render(filepath.Base(path))
	if st.indeterminate {
		return name + " " + dimStyle.Render(spinner(st.ticks)+" working")
	}
	return name + " " + barStyle.Render(renderBar(width, float64(st.percent)/100)) +
		dimStyle.Render(fmt.Sprintf(" %3d%%", st.percent))
}

func spinner(tick int) string {
	frames := []string{"|", "/", "-", "\\"}
	return frames[tick%len(frames)]
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
