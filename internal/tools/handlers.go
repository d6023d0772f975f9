package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/manimcp/internal/artifact"
	"github.com/mattjoyce/manimcp/internal/cleanup"
	"github.com/mattjoyce/manimcp/internal/inspect"
	"github.com/mattjoyce/manimcp/internal/render"
	"github.com/mattjoyce/manimcp/internal/script"
	"github.com/mattjoyce/manimcp/internal/toolerr"
	"github.com/mattjoyce/manimcp/internal/workflow"
)

// stdoutPreview caps renderer output echoed back to the caller.
const stdoutPreview = 500

func (s *Service) createScript(ctx context.Context, args Args) (Result, error) {
	code, err := args.Required("code")
	if err != nil {
		return Result{}, err
	}
	scriptDir, err := args.String("script_dir")
	if err != nil {
		return Result{}, err
	}
	name, err := args.StringOr("script_name", script.DefaultName)
	if err != nil {
		return Result{}, err
	}
	validate, err := args.Bool("validate", true)
	if err != nil {
		return Result{}, err
	}

	ws, sc, err := s.deps.Orchestrator.Create(ctx, workflow.CreateRequest{
		Code:       code,
		ScriptDir:  scriptDir,
		ScriptName: name,
		Validate:   validate,
	})
	if toolerr.Is(err, toolerr.KindValidation) {
		return fail("❌ Script validation failed: " + err.Error()), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("Failed to create script: %w", err)
	}
	return ok(createdText(sc.Path, ws.Dir, validate)), nil
}

func (s *Service) validateScript(_ context.Context, args Args) (Result, error) {
	code, err := args.Required("code")
	if err != nil {
		return Result{}, err
	}
	if err := script.Validate(code); err != nil {
		return fail("❌ Script validation failed: " + err.Error()), nil
	}
	return ok("✅ Script validation passed! No security issues detected."), nil
}

func (s *Service) renderAnimation(ctx context.Context, args Args) (Result, error) {
	scriptArg, err := args.Required("script_path")
	if err != nil {
		return Result{}, err
	}
	outArg, err := args.String("output_dir")
	if err != nil {
		return Result{}, err
	}
	quality, err := args.StringOr("quality", s.deps.DefaultQuality)
	if err != nil {
		return Result{}, err
	}
	preview, err := args.Bool("preview", s.deps.Preview)
	if err != nil {
		return Result{}, err
	}

	scriptPath, err := s.deps.Workspaces.Resolve(scriptArg)
	if err != nil {
		return Result{}, err
	}
	var outDir string
	if outArg != "" {
		if outDir, err = s.deps.Workspaces.Resolve(outArg); err != nil {
			return Result{}, err
		}
	}

	res, err := s.deps.Renderer.Render(ctx, render.Request{
		ScriptPath: scriptPath,
		OutputDir:  outDir,
		Quality:    quality,
		Preview:    preview,
	})
	if err != nil {
		return Result{}, err
	}
	return ok(renderedText(scriptPath, quality, outArg, res.Stdout)), nil
}

func (s *Service) findVideos(_ context.Context, args Args) (Result, error) {
	dirArg, err := args.Required("search_dir")
	if err != nil {
		return Result{}, err
	}
	pattern, err := args.StringOr("pattern", s.deps.VideoPattern)
	if err != nil {
		return Result{}, err
	}
	recursive, err := args.Bool("recursive", true)
	if err != nil {
		return Result{}, err
	}

	dir, err := s.deps.Workspaces.Resolve(dirArg)
	if err != nil {
		return Result{}, err
	}
	return s.videosText(dir, pattern, recursive)
}

func (s *Service) videosText(dir, pattern string, recursive bool) (Result, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return ok("⚠️ Directory not found: " + dir), nil
	}
	videos, err := artifact.Find(dir, pattern, recursive)
	if err != nil {
		return Result{}, fmt.Errorf("Error searching for videos: %w", err)
	}
	if len(videos) == 0 {
		return ok(fmt.Sprintf("📹 No video files found in %s matching pattern '%s'", dir, pattern)), nil
	}
	return ok(fmt.Sprintf("📹 Found %d video file(s) in %s:\n\n%s", len(videos), dir, bulletList(videos))), nil
}

func (s *Service) getWorkspaceInfo(_ context.Context, args Args) (Result, error) {
	pathArg, err := args.Required("workspace_path")
	if err != nil {
		return Result{}, err
	}
	path, err := s.deps.Workspaces.Resolve(pathArg)
	if err != nil {
		return Result{}, err
	}
	stats, err := inspect.Inspect(path)
	if err != nil {
		return Result{}, fmt.Errorf("Error getting workspace info: %w", err)
	}
	return ok(stats.Report()), nil
}

func (s *Service) cleanupFiles(_ context.Context, args Args) (Result, error) {
	target, err := args.Required("target_path")
	if err != nil {
		return Result{}, err
	}
	recursive, err := args.Bool("recursive", false)
	if err != nil {
		return Result{}, err
	}

	path, outcome, err := s.deps.Cleaner.Remove(target, recursive)
	if err != nil {
		if toolerr.Is(err, toolerr.KindPathRejected) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("Error during cleanup: %w", err)
	}

	switch outcome {
	case cleanup.NotFound:
		return ok("⚠️ Target not found: " + path), nil
	case cleanup.FileDeleted:
		return ok("✅ File deleted: " + path), nil
	case cleanup.TreeDeleted:
		return ok("✅ Directory deleted recursively: " + path), nil
	case cleanup.EmptyDirDeleted:
		return ok("✅ Empty directory deleted: " + path), nil
	case cleanup.NotEmpty:
		return fail("❌ Directory not empty. Use recursive=true to force deletion: " + path), nil
	default:
		return Result{}, toolerr.Newf(toolerr.KindInternal, "", "unexpected cleanup outcome %q", outcome)
	}
}

func (s *Service) executeManimComplete(ctx context.Context, args Args) (Result, error) {
	code, err := args.Required("code")
	if err != nil {
		return Result{}, err
	}
	req := workflow.CompleteRequest{Code: code}
	if req.ScriptDir, err = args.String("script_dir"); err != nil {
		return Result{}, err
	}
	if req.OutputDir, err = args.String("output_dir"); err != nil {
		return Result{}, err
	}
	if req.ScriptName, err = args.StringOr("script_name", script.DefaultName); err != nil {
		return Result{}, err
	}
	if req.Quality, err = args.StringOr("quality", s.deps.DefaultQuality); err != nil {
		return Result{}, err
	}

	res, err := s.deps.Orchestrator.Complete(ctx, req)
	if err != nil {
		return Result{}, err
	}

	found, err := s.videosText(res.SearchDir, s.deps.VideoPattern, true)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	b.WriteString("🎬 Complete Manim workflow executed successfully!\n\n")
	b.WriteString("📝 Step 1 - Script Creation:\n")
	b.WriteString(createdText(res.Script.Path, res.Script.Dir, true))
	b.WriteString("\n\n🎬 Step 2 - Animation Rendering:\n")
	b.WriteString(renderedText(res.Script.Path, res.Quality, req.OutputDir, res.Render.Stdout))
	b.WriteString("\n\n📹 Step 3 - Video Discovery:\n")
	b.WriteString(found.Text)
	b.WriteString("\n\nUse individual tools for more granular control.")
	return ok(b.String()), nil
}

func (s *Service) executeManim(ctx context.Context, args Args) (Result, error) {
	code, err := args.Required("code")
	if err != nil {
		return Result{}, err
	}
	req := workflow.ExecuteRequest{Code: code}
	if req.ScriptDir, err = args.String("script_dir"); err != nil {
		return Result{}, err
	}
	if req.OutputDir, err = args.String("output_dir"); err != nil {
		return Result{}, err
	}
	if req.ScriptName, err = args.StringOr("script_name", script.DefaultName); err != nil {
		return Result{}, err
	}

	res, err := s.deps.Orchestrator.Execute(ctx, req)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	b.WriteString("✅ Manim execution successful!\n\n")
	fmt.Fprintf(&b, "Script saved to: %s\n", res.Script.Path)
	fmt.Fprintf(&b, "Output directory: %s\n", res.OutputDir)
	fmt.Fprintf(&b, "Working directory: %s\n", res.WorkDir)
	fmt.Fprintf(&b, "Output: %s", truncateOutput(res.Render.Stdout))
	if len(res.Videos) > 0 {
		fmt.Fprintf(&b, "\n\nGenerated videos:\n%s", bulletList(res.Videos))
	}
	b.WriteString("\n\nUse the cleanup_workspace tool to remove temporary files when done.")
	return ok(b.String()), nil
}

func (s *Service) cleanupWorkspace(_ context.Context, args Args) (Result, error) {
	workDir, err := args.Required("work_dir")
	if err != nil {
		return Result{}, err
	}

	_, outcome, err := s.deps.Cleaner.RemoveWorkspace(workDir)
	if err != nil {
		if toolerr.Is(err, toolerr.KindPathRejected) {
			return Result{}, err
		}
		return fail(fmt.Sprintf("❌ Failed to cleanup workspace %s: %v", workDir, err)), nil
	}
	if outcome == cleanup.NotFound {
		return ok("⚠️ Directory not found or not a directory: " + workDir), nil
	}
	return ok("✅ Successfully cleaned up workspace: " + workDir), nil
}

func (s *Service) listGeneratedVideos(ctx context.Context, args Args) (Result, error) {
	dirArg, err := args.String("search_dir")
	if err != nil {
		return Result{}, err
	}

	var dirs []string
	if dirArg != "" {
		dir, err := s.deps.Workspaces.Resolve(dirArg)
		if err != nil {
			return Result{}, err
		}
		dirs = []string{dir}
	} else {
		generated, err := s.deps.Workspaces.List(ctx)
		if err != nil {
			return fail("❌ Error listing videos: " + err.Error()), nil
		}
		for _, ws := range generated {
			dirs = append(dirs, filepath.Join(ws.Dir, workflow.MediaDir))
		}
	}

	videos, err := artifact.FindEach(dirs, artifact.DefaultPattern)
	if err != nil {
		return fail("❌ Error listing videos: " + err.Error()), nil
	}
	if len(videos) == 0 {
		return ok("📹 No generated videos found."), nil
	}
	return ok("📹 Generated videos:\n" + bulletList(videos)), nil
}

func (s *Service) listRenders(ctx context.Context, args Args) (Result, error) {
	limit, err := args.Int("limit", 10)
	if err != nil {
		return Result{}, err
	}
	if limit <= 0 {
		return Result{}, toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument limit must be positive (got %d)", limit)
	}
	if s.deps.History == nil {
		return ok("⚠️ Render history is disabled."), nil
	}

	records, err := s.deps.History.Recent(ctx, limit)
	if err != nil {
		return Result{}, fmt.Errorf("Error reading render history: %w", err)
	}
	if len(records) == 0 {
		return ok("📋 No renders recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Recent renders (%d):\n", len(records))
	for _, r := range records {
		quality := r.Quality
		if quality == "" {
			quality = "default"
		}
		fmt.Fprintf(&b, "\n- %s %s exit=%d quality=%s %s\n  %s",
			r.StartedAt.UTC().Format(time.RFC3339), r.Status, r.ExitCode, quality,
			r.Duration.Round(time.Millisecond), r.ScriptPath)
	}
	return ok(b.String()), nil
}

func createdText(path, dir string, validated bool) string {
	v := "No"
	if validated {
		v = "Yes"
	}
	return fmt.Sprintf("✅ Script created successfully!\n\n"+
		"📄 Script path: %s\n"+
		"📁 Directory: %s\n"+
		"🔍 Validated: %s\n\n"+
		"Use 'render_animation' tool to render this script.", path, dir, v)
}

func renderedText(scriptPath, quality, outputArg, stdout string) string {
	if outputArg == "" {
		outputArg = "default"
	}
	return fmt.Sprintf("✅ Animation rendered successfully!\n\n"+
		"📄 Script: %s\n"+
		"🎬 Quality: %s\n"+
		"📁 Output dir: %s\n\n"+
		"📋 Output:\n%s\n\n"+
		"Use 'find_videos' tool to locate generated videos.", scriptPath, quality, outputArg, truncateOutput(stdout))
}

// truncateOutput cuts s to stdoutPreview runes, marking the cut with "...".
func truncateOutput(s string) string {
	runes := []rune(s)
	if len(runes) <= stdoutPreview {
		return s
	}
	return string(runes[:stdoutPreview]) + "..."
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
