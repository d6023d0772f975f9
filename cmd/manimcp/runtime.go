package main

import (
	"context"
	"fmt"

	"github.com/mattjoyce/manimcp/internal/cleanup"
	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/history"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/render"
	"github.com/mattjoyce/manimcp/internal/tools"
	"github.com/mattjoyce/manimcp/internal/workflow"
	"github.com/mattjoyce/manimcp/internal/workspace"
)

// eventBuffer is how many events late /events subscribers can replay.
const eventBuffer = 256

// serverRuntime is every component a serving process needs, wired from cfg.
type serverRuntime struct {
	ws      workspace.Manager
	hub     *events.Hub
	history *history.Store
	tools   *tools.Service
}

func newRuntime(ctx context.Context, cfg *config.Config) (*serverRuntime, error) {
	ws, err := workspace.NewFSManager(cfg.Workspace.BaseDir, cfg.Workspace.Prefix)
	if err != nil {
		return nil, fmt.Errorf("workspace base directory: %w", err)
	}

	hist, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("render history: %w", err)
	}

	hub := events.NewHub(eventBuffer)
	renderer := render.New(render.Options{
		Executable:    cfg.Render.Executable,
		Timeout:       cfg.Render.Timeout,
		MaxConcurrent: cfg.Render.MaxConcurrent,
		Events:        hub,
		History:       hist,
		Logger:        log.WithComponent("render"),
	})
	orch := workflow.New(workflow.Options{
		Workspaces:     ws,
		Renderer:       renderer,
		Events:         hub,
		VideoPattern:   cfg.Render.VideoPattern,
		DefaultQuality: cfg.Render.DefaultQuality,
		Preview:        cfg.Render.PreviewDefault(),
	})

	svc := tools.NewService(tools.Deps{
		Workspaces:     ws,
		Orchestrator:   orch,
		Renderer:       renderer,
		Cleaner:        cleanup.New(ws, cfg.Workspace.CleanupRestricted(), hub),
		History:        hist,
		Events:         hub,
		DefaultQuality: cfg.Render.DefaultQuality,
		Preview:        cfg.Render.PreviewDefault(),
		VideoPattern:   cfg.Render.VideoPattern,
	})

	return &serverRuntime{ws: ws, hub: hub, history: hist, tools: svc}, nil
}

func (rt *serverRuntime) Close() error {
	return rt.history.Close()
}
