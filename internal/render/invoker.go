package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/history"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/script"
	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// terminationGracePeriod is the time we wait after SIGTERM before sending SIGKILL.
const terminationGracePeriod = 5 * time.Second

// DefaultExecutable is used when Options.Executable is empty.
const DefaultExecutable = "manim"

var qualityFlags = map[string]string{
	"low":        "-ql",
	"medium":     "-qm",
	"high":       "-qh",
	"production": "-qp",
}

// QualityFlag returns the renderer flag for quality. The empty quality maps
// to no flag.
func QualityFlag(quality string) (string, bool) {
	if quality == "" {
		return "", true
	}
	flag, ok := qualityFlags[quality]
	return flag, ok
}

// Request describes one render.
type Request struct {
	ScriptPath string
	// OutputDir becomes --media_dir when set. It is created if missing.
	OutputDir string
	// Quality is one of low, medium, high, production, or empty for the
	// renderer's own default.
	Quality string
	Preview bool
	// WorkDir overrides the working directory; default is the script's parent.
	WorkDir string
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ID       string
	ExitCode int
	Stdout   string
	Stderr   string
	Args     []string
	Duration time.Duration
}

//go:generate mockgen -destination=mocks/mock_renderer.go -package=mocks github.com/mattjoyce/manimcp/internal/render Renderer

// Renderer renders a script.
type Renderer interface {
	Render(ctx context.Context, req Request) (Result, error)
}

// Recorder stores render history.
type Recorder interface {
	Record(ctx context.Context, r history.Record) error
}

// Options configures an Invoker.
type Options struct {
	Executable string
	// Timeout bounds each render. Zero means no limit.
	Timeout time.Duration
	// MaxConcurrent bounds simultaneous renders. Zero means unbounded.
	MaxConcurrent int
	Events        events.Publisher
	History       Recorder
	// Logger defaults to the process logger.
	Logger *slog.Logger
}

// Invoker spawns the renderer executable.
type Invoker struct {
	executable string
	timeout    time.Duration
	sem        *semaphore.Weighted
	events     events.Publisher
	history    Recorder
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

var _ Renderer = (*Invoker)(nil)

// New creates an Invoker.
func New(opts Options) *Invoker {
	inv := &Invoker{
		executable: opts.Executable,
		timeout:    opts.Timeout,
		events:     opts.Events,
		history:    opts.History,
		logger:     opts.Logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if inv.executable == "" {
		inv.executable = DefaultExecutable
	}
	if opts.MaxConcurrent > 0 {
		inv.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	if inv.events == nil {
		inv.events = events.Discard
	}
	return inv
}

// Executable returns the configured renderer executable.
func (inv *Invoker) Executable() string {
	return inv.executable
}

// Args builds the renderer argument vector for req.
func (inv *Invoker) Args(req Request) ([]string, error) {
	flag, ok := QualityFlag(req.Quality)
	if !ok {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "", "Invalid quality: %s (expected low, medium, high or production)", req.Quality)
	}

	args := []string{inv.executable}
	if flag != "" {
		args = append(args, flag)
	}
	if req.Preview {
		args = append(args, "-p")
	}
	if req.OutputDir != "" {
		args = append(args, "--media_dir", req.OutputDir)
	}
	return append(args, req.ScriptPath), nil
}

// Render runs the renderer for req. A non-nil Result is returned whenever the
// process started, including on non-zero exit.
func (inv *Invoker) Render(ctx context.Context, req Request) (Result, error) {
	scriptPath, err := filepath.Abs(req.ScriptPath)
	if err != nil {
		return Result{}, toolerr.Wrap(toolerr.KindInvalidArgument, "render", err)
	}
	req.ScriptPath = scriptPath

	source, err := os.ReadFile(scriptPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, toolerr.Newf(toolerr.KindNotFound, "", "Script file not found: %s", scriptPath)
		}
		return Result{}, toolerr.Wrap(toolerr.KindFilesystem, "read script", err)
	}

	if req.OutputDir != "" {
		outDir, err := filepath.Abs(req.OutputDir)
		if err != nil {
			return Result{}, toolerr.Wrap(toolerr.KindInvalidArgument, "render", err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return Result{}, toolerr.Wrap(toolerr.KindFilesystem, "create output directory", err)
		}
		req.OutputDir = outDir
	}

	args, err := inv.Args(req)
	if err != nil {
		return Result{}, err
	}

	if inv.sem != nil {
		if err := inv.sem.Acquire(ctx, 1); err != nil {
			return Result{}, toolerr.Wrap(toolerr.KindRender, "wait for render slot", err)
		}
		defer inv.sem.Release(1)
	}

	workDir := req.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(scriptPath)
	}

	id := inv.newID()
	logger := log.WithRender(id)
	if inv.logger != nil {
		logger = inv.logger.With("render_id", id)
	}
	logger = logger.With("script", scriptPath)
	payload := events.Render{RenderID: id, ScriptPath: scriptPath, Quality: req.Quality, OutputDir: req.OutputDir}

	rec := history.Record{
		ID:           id,
		ScriptPath:   scriptPath,
		ScriptDigest: script.Digest(string(source)),
		Quality:      req.Quality,
		OutputDir:    req.OutputDir,
		Args:         args,
	}

	logger.Info("render started", "args", args, "work_dir", workDir)
	inv.events.Publish(events.TypeRenderStarted, payload)

	started := inv.now()
	res, runErr := inv.spawn(ctx, args, workDir, logger)
	res.ID = id
	res.Args = args
	res.Duration = inv.now().Sub(started)

	rec.StartedAt = started
	rec.CompletedAt = started.Add(res.Duration)
	rec.Duration = res.Duration
	rec.ExitCode = res.ExitCode
	rec.Stderr = res.Stderr
	payload.ExitCode = res.ExitCode
	payload.DurationMS = res.Duration.Milliseconds()

	switch {
	case runErr != nil:
		rec.Status = history.StatusSpawnFail
		if toolerr.Is(runErr, toolerr.KindRender) {
			rec.Status = history.StatusTimedOut
		}
		payload.Error = runErr.Error()
		logger.Error("render did not complete", "error", runErr)
		inv.events.Publish(events.TypeRenderFailed, payload)
	case res.ExitCode != 0:
		rec.Status = history.StatusFailed
		runErr = toolerr.Newf(toolerr.KindRender, "", "Render failed with exit code %d: %s", res.ExitCode, res.Stderr)
		payload.Error = fmt.Sprintf("exit code %d", res.ExitCode)
		logger.Warn("render exited with non-zero status", "exit_code", res.ExitCode, "duration", res.Duration)
		inv.events.Publish(events.TypeRenderFailed, payload)
	default:
		rec.Status = history.StatusSucceeded
		logger.Info("render completed", "duration", res.Duration)
		inv.events.Publish(events.TypeRenderCompleted, payload)
	}

	if inv.history != nil {
		// History must not fail a render that already happened.
		if err := inv.history.Record(context.WithoutCancel(ctx), rec); err != nil {
			logger.Error("failed to record render", "error", err)
		}
	}

	return res, runErr
}

// spawn runs args and waits for it. The returned error is non-nil only when
// the process could not be started or was terminated; a non-zero exit is
// reported through Result.ExitCode.
func (inv *Invoker) spawn(ctx context.Context, args []string, workDir string, logger *slog.Logger) (Result, error) {
	// Don't use CommandContext: termination is SIGTERM first, then SIGKILL.
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, toolerr.Wrap(toolerr.KindSpawn, "start renderer", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if inv.timeout > 0 {
		timer := time.NewTimer(inv.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var reason error
	select {
	case err := <-waitErr:
		return finish(&stdout, &stderr, err)
	case <-deadline:
		reason = fmt.Errorf("render timed out after %s", inv.timeout)
	case <-ctx.Done():
		reason = fmt.Errorf("render cancelled: %w", ctx.Err())
	}

	logger.Warn("terminating renderer, sending SIGTERM", "reason", reason)
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Error("failed to send SIGTERM", "error", err)
	}

	grace := time.NewTimer(terminationGracePeriod)
	defer grace.Stop()

	select {
	case <-waitErr:
		logger.Info("renderer exited after SIGTERM")
	case <-grace.C:
		logger.Warn("renderer did not exit after SIGTERM, sending SIGKILL")
		if err := cmd.Process.Kill(); err != nil {
			logger.Error("failed to send SIGKILL", "error", err)
		}
		<-waitErr
	}

	res := Result{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	return res, toolerr.Wrap(toolerr.KindRender, "", reason)
}

func finish(stdout, stderr *bytes.Buffer, waitErr error) (Result, error) {
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if waitErr == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, toolerr.Wrap(toolerr.KindSpawn, "wait for renderer", waitErr)
}
