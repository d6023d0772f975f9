// Package tools exposes the server's operations as named tools.
//
// Every call returns a single text block prefixed with a status marker.
// Errors never escape Call: they are converted to a failure Result at the
// boundary so transports only ever see text.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mattjoyce/manimcp/internal/cleanup"
	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/history"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/render"
	"github.com/mattjoyce/manimcp/internal/toolerr"
	"github.com/mattjoyce/manimcp/internal/workflow"
	"github.com/mattjoyce/manimcp/internal/workspace"
)

// Result is the outcome of a tool call.
type Result struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

func ok(text string) Result   { return Result{Text: text} }
func fail(text string) Result { return Result{Text: text, IsError: true} }

// HistoryReader lists recorded renders.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// Deps are the components tools operate on.
type Deps struct {
	Workspaces   workspace.Manager
	Orchestrator *workflow.Orchestrator
	Renderer     render.Renderer
	Cleaner      *cleanup.Cleaner
	// History is optional; list_renders reports it as disabled when nil.
	History HistoryReader
	Events  events.Publisher

	DefaultQuality string
	Preview        bool
	VideoPattern   string
}

type handlerFunc func(ctx context.Context, args Args) (Result, error)

// Service dispatches tool calls by name.
type Service struct {
	deps     Deps
	defs     []Definition
	handlers map[string]handlerFunc
	logger   *slog.Logger
}

// NewService wires the tool handlers.
func NewService(deps Deps) *Service {
	if deps.Events == nil {
		deps.Events = events.Discard
	}
	if deps.DefaultQuality == "" {
		deps.DefaultQuality = "medium"
	}
	if deps.VideoPattern == "" {
		deps.VideoPattern = "*.mp4"
	}

	s := &Service{
		deps:   deps,
		defs:   definitions(),
		logger: log.WithComponent("tools"),
	}
	s.handlers = map[string]handlerFunc{
		CreateScript:         s.createScript,
		ValidateScript:       s.validateScript,
		RenderAnimation:      s.renderAnimation,
		FindVideos:           s.findVideos,
		GetWorkspaceInfo:     s.getWorkspaceInfo,
		CleanupFiles:         s.cleanupFiles,
		ExecuteManimComplete: s.executeManimComplete,
		ExecuteManim:         s.executeManim,
		CleanupWorkspace:     s.cleanupWorkspace,
		ListGeneratedVideos:  s.listGeneratedVideos,
		ListRenders:          s.listRenders,
	}
	return s
}

// Definitions returns every tool definition, in registration order.
func (s *Service) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Names returns the sorted tool names.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named tool. It never returns an error: failures become a
// Result with IsError set.
func (s *Service) Call(ctx context.Context, name string, args Args) (res Result) {
	logger := log.WithTool(name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", "panic", r)
			res = errorResult(name, toolerr.Newf(toolerr.KindInternal, "", "internal error: %v", r))
		}
		logger.Info("tool call finished", "is_error", res.IsError, "duration", time.Since(start))
		s.deps.Events.Publish(events.TypeToolCalled, events.ToolCalled{Tool: name, IsError: res.IsError})
	}()

	handler, found := s.handlers[name]
	if !found {
		return errorResult(name, toolerr.Newf(toolerr.KindUnknownTool, "", "Unknown tool: %s", name))
	}
	if args == nil {
		args = Args{}
	}

	logger.Debug("tool call started")
	res, err := handler(ctx, args)
	if err != nil {
		logger.Warn("tool call failed", "kind", string(toolerr.KindOf(err)), "error", err)
		return errorResult(name, err)
	}
	return res
}

func errorResult(name string, err error) Result {
	return fail(fmt.Sprintf("❌ Error executing tool '%s': %v", name, err))
}
