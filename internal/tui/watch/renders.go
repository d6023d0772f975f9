package watch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/manimcp/internal/events"
)

const maxTrackedRenders = 100

// Render states shown in the table.
const (
	renderRunning   = "running"
	renderCompleted = "completed"
	renderFailed    = "failed"
)

// RenderState tracks one render seen on the event stream.
type RenderState struct {
	ID         string
	ScriptPath string
	Quality    string
	Status     string
	ExitCode   int
	Duration   time.Duration
	Error      string
	StartedAt  time.Time
}

// renderTracker keeps renders newest first.
type renderTracker struct {
	byID  map[string]*RenderState
	order []string
}

func newRenderTracker() *renderTracker {
	return &renderTracker{byID: make(map[string]*RenderState)}
}

// apply updates tracking from a render.* event. Other events are ignored.
func (t *renderTracker) apply(e events.Event) bool {
	var status string
	switch e.Type {
	case events.TypeRenderStarted:
		status = renderRunning
	case events.TypeRenderCompleted:
		status = renderCompleted
	case events.TypeRenderFailed:
		status = renderFailed
	default:
		return false
	}

	var p events.Render
	if err := json.Unmarshal(e.Data, &p); err != nil || p.RenderID == "" {
		return false
	}

	r, ok := t.byID[p.RenderID]
	if !ok {
		r = &RenderState{ID: p.RenderID, StartedAt: e.At}
		t.byID[p.RenderID] = r
		t.order = append([]string{p.RenderID}, t.order...)
		t.trim()
	}
	if p.ScriptPath != "" {
		r.ScriptPath = p.ScriptPath
	}
	if p.Quality != "" {
		r.Quality = p.Quality
	}
	r.Status = status
	if status != renderRunning {
		r.ExitCode = p.ExitCode
		r.Duration = time.Duration(p.DurationMS) * time.Millisecond
		r.Error = p.Error
	}
	return true
}

func (t *renderTracker) trim() {
	for len(t.order) > maxTrackedRenders {
		last := t.order[len(t.order)-1]
		delete(t.byID, last)
		t.order = t.order[:len(t.order)-1]
	}
}

func (t *renderTracker) counts() (running, completed, failed int) {
	for _, r := range t.byID {
		switch r.Status {
		case renderRunning:
			running++
		case renderCompleted:
			completed++
		case renderFailed:
			failed++
		}
	}
	return running, completed, failed
}

func (t *renderTracker) rows() []table.Row {
	rows := make([]table.Row, 0, len(t.order))
	for _, id := range t.order {
		r := t.byID[id]
		short := r.ID
		if len(short) > 8 {
			short = short[:8]
		}
		quality := r.Quality
		if quality == "" {
			quality = "default"
		}
		exit, dur := "-", "-"
		if r.Status != renderRunning {
			exit = fmt.Sprintf("%d", r.ExitCode)
			dur = r.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, table.Row{statusIcon(r.Status), short, filepath.Base(r.ScriptPath), quality, exit, dur})
	}
	return rows
}

func statusIcon(status string) string {
	switch status {
	case renderRunning:
		return "▶"
	case renderCompleted:
		return "✓"
	case renderFailed:
		return "✗"
	default:
		return "?"
	}
}

func newRenderTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Render", Width: 8},
			{Title: "Script", Width: 24},
			{Title: "Quality", Width: 10},
			{Title: "Exit", Width: 4},
			{Title: "Duration", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func renderRenders(t table.Model, theme Theme, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("RENDERS"),
		t.View(),
	)
	return theme.Border.Width(width - 4).Render(content)
}
