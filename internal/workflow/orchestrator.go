// Package workflow chains script creation, rendering and video discovery.
package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/manimcp/internal/artifact"
	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/render"
	"github.com/mattjoyce/manimcp/internal/script"
	"github.com/mattjoyce/manimcp/internal/toolerr"
	"github.com/mattjoyce/manimcp/internal/workspace"
)

// MediaDir is the renderer's default output directory, relative to its
// working directory.
const MediaDir = "media"

// Options configures an Orchestrator.
type Options struct {
	Workspaces     workspace.Manager
	Renderer       render.Renderer
	Writer         script.Writer
	Events         events.Publisher
	VideoPattern   string
	DefaultQuality string
	Preview        bool
}

// Orchestrator runs multi-step tool operations.
type Orchestrator struct {
	ws       workspace.Manager
	renderer render.Renderer
	writer   script.Writer
	events   events.Publisher
	pattern  string
	quality  string
	preview  bool
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		ws:       opts.Workspaces,
		renderer: opts.Renderer,
		writer:   opts.Writer,
		events:   opts.Events,
		pattern:  opts.VideoPattern,
		quality:  opts.DefaultQuality,
		preview:  opts.Preview,
		logger:   log.WithComponent("workflow"),
	}
	if o.events == nil {
		o.events = events.Discard
	}
	if o.pattern == "" {
		o.pattern = artifact.DefaultPattern
	}
	if o.quality == "" {
		o.quality = "medium"
	}
	return o
}

// CreateRequest describes a script to write.
type CreateRequest struct {
	Code       string
	ScriptDir  string
	ScriptName string
	Validate   bool
}

// Create validates (when asked) and writes a script into the caller's
// directory or a freshly generated workspace.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (workspace.Workspace, script.Script, error) {
	if req.Validate {
		if err := script.Validate(req.Code); err != nil {
			return workspace.Workspace{}, script.Script{}, err
		}
	}

	ws, err := o.ws.ResolveOrGenerate(ctx, req.ScriptDir)
	if err != nil {
		return workspace.Workspace{}, script.Script{}, err
	}

	sc, err := o.writer.Write(ws.Dir, req.ScriptName, req.Code)
	if err != nil {
		o.discard(ws)
		return workspace.Workspace{}, script.Script{}, err
	}

	o.logger.Info("script created", "path", sc.Path, "digest", sc.Digest, "generated", ws.Generated)
	o.events.Publish(events.TypeScriptCreated, events.ScriptCreated{Path: sc.Path, Digest: sc.Digest, Bytes: sc.Bytes})
	return ws, sc, nil
}

// CompleteRequest drives the create, render and find pipeline.
type CompleteRequest struct {
	Code       string
	ScriptDir  string
	OutputDir  string
	ScriptName string
	Quality    string
}

// CompleteResult carries every step's output. Fields are filled as steps
// complete, so a failed run still reports what happened before the failure.
type CompleteResult struct {
	Workspace workspace.Workspace
	Script    script.Script
	Quality   string
	OutputDir string
	Render    render.Result
	SearchDir string
	Videos    []string
}

// Complete creates a validated script, renders it and lists the videos it
// produced. The directory chosen for the script is the one rendered; nothing
// is inferred from modification times. A generated workspace is removed if
// any step fails.
func (o *Orchestrator) Complete(ctx context.Context, req CompleteRequest) (CompleteResult, error) {
	res := CompleteResult{Quality: req.Quality}
	if res.Quality == "" {
		res.Quality = o.quality
	}
	if _, ok := render.QualityFlag(res.Quality); !ok {
		return res, failed(toolerr.Newf(toolerr.KindInvalidArgument, "", "Invalid quality: %s", res.Quality))
	}

	outDir, err := o.resolveOptional(req.OutputDir)
	if err != nil {
		return res, failed(err)
	}
	res.OutputDir = outDir

	ws, sc, err := o.Create(ctx, CreateRequest{
		Code:       req.Code,
		ScriptDir:  req.ScriptDir,
		ScriptName: req.ScriptName,
		Validate:   true,
	})
	if err != nil {
		return res, failed(err)
	}
	res.Workspace, res.Script = ws, sc

	res.Render, err = o.renderer.Render(ctx, render.Request{
		ScriptPath: sc.Path,
		OutputDir:  outDir,
		Quality:    res.Quality,
		Preview:    o.preview,
	})
	if err != nil {
		o.discard(ws)
		return res, failed(err)
	}

	res.SearchDir = outDir
	if res.SearchDir == "" {
		res.SearchDir = filepath.Join(sc.Dir, MediaDir)
	}
	res.Videos, err = artifact.Find(res.SearchDir, o.pattern, true)
	if err != nil {
		o.discard(ws)
		return res, failed(err)
	}
	return res, nil
}

// ExecuteRequest drives the single-call render.
type ExecuteRequest struct {
	Code       string
	ScriptDir  string
	OutputDir  string
	ScriptName string
}

// ExecuteResult is the outcome of Execute.
type ExecuteResult struct {
	WorkDir   string
	Script    script.Script
	OutputDir string
	Render    render.Result
	Videos    []string
}

// Execute validates code, writes it to ScriptDir or a generated work
// directory, and renders it from the work directory with the renderer's
// default quality. The work directory is removed if any step fails.
func (o *Orchestrator) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	var res ExecuteResult
	if err := script.Validate(req.Code); err != nil {
		return res, err
	}

	scriptDir, err := o.resolveOptional(req.ScriptDir)
	if err != nil {
		return res, err
	}
	outDir, err := o.resolveOptional(req.OutputDir)
	if err != nil {
		return res, err
	}

	work, err := o.ws.Generate(ctx)
	if err != nil {
		return res, err
	}
	res.WorkDir = work.Dir

	if scriptDir == "" {
		scriptDir = work.Dir
	} else if err := o.ws.Ensure(scriptDir); err != nil {
		o.discard(work)
		return res, err
	}

	res.Script, err = o.writer.Write(scriptDir, req.ScriptName, req.Code)
	if err != nil {
		o.discard(work)
		return res, err
	}
	o.events.Publish(events.TypeScriptCreated, events.ScriptCreated{Path: res.Script.Path, Digest: res.Script.Digest, Bytes: res.Script.Bytes})

	res.Render, err = o.renderer.Render(ctx, render.Request{
		ScriptPath: res.Script.Path,
		OutputDir:  outDir,
		Preview:    o.preview,
		WorkDir:    work.Dir,
	})
	if err != nil {
		o.discard(work)
		return res, err
	}

	res.OutputDir = outDir
	if res.OutputDir == "" {
		res.OutputDir = filepath.Join(work.Dir, MediaDir)
	}
	res.Videos, err = artifact.Find(res.OutputDir, o.pattern, true)
	if err != nil {
		o.discard(work)
		return res, err
	}
	return res, nil
}

func (o *Orchestrator) resolveOptional(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return o.ws.Resolve(path)
}

// discard removes a generated workspace after a failure. Errors are logged
// and otherwise ignored.
func (o *Orchestrator) discard(ws workspace.Workspace) {
	if !ws.Generated {
		return
	}
	if err := o.ws.Remove(ws); err != nil {
		o.logger.Warn("failed to remove workspace after failure", "dir", ws.Dir, "error", err)
		return
	}
	o.logger.Info("removed workspace after failure", "dir", ws.Dir)
}

func failed(err error) error {
	return toolerr.Wrap(toolerr.KindOf(err), "Complete workflow failed", err)
}
