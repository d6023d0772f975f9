package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/manimcp/internal/events"
)

func event(t *testing.T, id int64, typ string, payload any) events.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.Event{ID: id, Type: typ, At: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Data: data}
}

func TestRenderTracker(t *testing.T) {
	tr := newRenderTracker()

	assert.False(t, tr.apply(event(t, 1, events.TypeToolCalled, events.ToolCalled{Tool: "x"})))
	assert.True(t, tr.apply(event(t, 2, events.TypeRenderStarted, events.Render{RenderID: "abcdef123456", ScriptPath: "/w/scene.py", Quality: "low"})))
	assert.True(t, tr.apply(event(t, 3, events.TypeRenderStarted, events.Render{RenderID: "second", ScriptPath: "/w/intro.py"})))
	assert.True(t, tr.apply(event(t, 4, events.TypeRenderFailed, events.Render{RenderID: "abcdef123456", ExitCode: 1, DurationMS: 1500, Error: "exit code 1"})))

	running, completed, failed := tr.counts()
	assert.Equal(t, [3]int{1, 0, 1}, [3]int{running, completed, failed})

	rows := tr.rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"▶", "second", "intro.py", "default", "-", "-"}, []string(rows[0]))
	assert.Equal(t, []string{"✗", "abcdef12", "scene.py", "low", "1", "1.5s"}, []string(rows[1]))
}

func TestRenderTrackerTrims(t *testing.T) {
	tr := newRenderTracker()
	for i := 0; i < maxTrackedRenders+5; i++ {
		tr.apply(event(t, int64(i+1), events.TypeRenderStarted, events.Render{RenderID: fmt.Sprintf("r%d", i)}))
	}
	assert.Len(t, tr.order, maxTrackedRenders)
	assert.Len(t, tr.byID, maxTrackedRenders)
	_, ok := tr.byID["r0"]
	assert.False(t, ok, "oldest render dropped")
}

func TestModelUpdate(t *testing.T) {
	m := New(context.Background(), "http://127.0.0.1:1", "k")
	fixed := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	var model tea.Model = *m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(healthMsg{Status: "ok", ToolsLoaded: 11, HistoryEnabled: true})
	model, _ = model.Update(eventMsg(event(t, 7, events.TypeRenderStarted, events.Render{RenderID: "r-1", ScriptPath: "/w/scene.py"})))
	model, _ = model.Update(eventMsg(event(t, 8, events.TypeRenderCompleted, events.Render{RenderID: "r-1", DurationMS: 250})))

	got := model.(Model)
	assert.Equal(t, int64(8), got.lastID)
	assert.True(t, got.health.Connected)
	assert.Len(t, got.eventLog, 2)
	assert.Equal(t, events.TypeRenderCompleted, got.eventLog[0].Type, "newest first")

	view := got.View()
	assert.Contains(t, view, "MANIMCP WATCH")
	assert.Contains(t, view, "Tools: 11")
	assert.Contains(t, view, "scene.py")
	assert.Contains(t, view, "render.completed")

	model, _ = model.Update(sseDisconnectedMsg{})
	got = model.(Model)
	assert.False(t, got.health.Connected)
	assert.Contains(t, got.View(), "reconnecting")
}

func TestModelQuits(t *testing.T) {
	m := New(context.Background(), "http://127.0.0.1:1", "k")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDescribeEvent(t *testing.T) {
	assert.Equal(t, "[abcdef12] scene.py exit code 1",
		describeEvent(event(t, 1, events.TypeRenderFailed, events.Render{RenderID: "abcdef123456", ScriptPath: "/w/scene.py", Error: "exit code 1"})))
	assert.Equal(t, "cleanup_files error",
		describeEvent(event(t, 2, events.TypeToolCalled, events.ToolCalled{Tool: "cleanup_files", IsError: true})))
	assert.Equal(t, "manim_work_1 tree_deleted",
		describeEvent(event(t, 3, events.TypeCleanupCompleted, events.Cleanup{Path: "/m/manim_work_1", Outcome: "tree_deleted"})))
}

func TestStreamEvents(t *testing.T) {
	var gotLastID, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLastID = r.Header.Get("Last-Event-ID")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "id: 5\nevent: render.started\ndata: {\"render_id\":\"r\"}\n\n")
		fmt.Fprint(w, "id: 6\nevent: tool.called\ndata: {\"tool\":\"find_videos\"}\n\n")
	}))
	defer srv.Close()

	ch := make(chan events.Event, 4)
	err := streamEvents(context.Background(), srv.URL, "key", 4, ch)
	require.NoError(t, err)
	assert.Equal(t, "4", gotLastID)
	assert.Equal(t, "Bearer key", gotAuth)

	require.Len(t, ch, 2)
	first := <-ch
	assert.Equal(t, int64(5), first.ID)
	assert.Equal(t, events.TypeRenderStarted, first.Type)
	assert.JSONEq(t, `{"render_id":"r"}`, string(first.Data))
	second := <-ch
	assert.Equal(t, events.TypeToolCalled, second.Type)
}

func TestStreamEventsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient scope"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	err := streamEvents(context.Background(), srv.URL, "key", 0, make(chan events.Event, 1))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"))
}

func TestActivityDecay(t *testing.T) {
	var a Activity
	start := time.Now()
	a.OnEvent(start)
	assert.Equal(t, activityDots, a.dots)

	a.Decay(start.Add(3 * time.Second))
	assert.Equal(t, 4, a.dots)
	a.Decay(start.Add(30 * time.Second))
	assert.Equal(t, 0, a.dots)
}
