package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/render"
	rendermocks "github.com/mattjoyce/manimcp/internal/render/mocks"
	"github.com/mattjoyce/manimcp/internal/script"
	"github.com/mattjoyce/manimcp/internal/toolerr"
	"github.com/mattjoyce/manimcp/internal/workspace"
	wsmocks "github.com/mattjoyce/manimcp/internal/workspace/mocks"
)

const sceneCode = `from manim import *

class Demo(Scene):
    def construct(self):
        self.play(Create(Circle()))
`

type fixture struct {
	orch     *Orchestrator
	ws       workspace.Manager
	renderer *rendermocks.MockRenderer
	hub      *events.Hub
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ws, err := workspace.NewFSManager(filepath.Join(t.TempDir(), "media"), "")
	require.NoError(t, err)
	renderer := rendermocks.NewMockRenderer(ctrl)
	hub := events.NewHub(20)

	orch := New(Options{
		Workspaces: ws,
		Renderer:   renderer,
		Events:     hub,
		Preview:    true,
	})
	return fixture{orch: orch, ws: ws, renderer: renderer, hub: hub}
}

// fakeVideo writes a video where the renderer would put it and returns its path.
func fakeVideo(t *testing.T, mediaDir string) string {
	t.Helper()
	path := filepath.Join(mediaDir, "videos", "scene", "720p30", "Demo.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))
	return path
}

func TestCompleteGeneratesWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var video string
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req render.Request) (render.Result, error) {
			assert.Equal(t, "medium", req.Quality)
			assert.True(t, req.Preview)
			assert.Empty(t, req.OutputDir)
			assert.Empty(t, req.WorkDir)
			video = fakeVideo(t, filepath.Join(filepath.Dir(req.ScriptPath), MediaDir))
			return render.Result{Stdout: "File ready at Demo.mp4"}, nil
		})

	res, err := f.orch.Complete(ctx, CompleteRequest{Code: sceneCode})
	require.NoError(t, err)

	assert.True(t, res.Workspace.Generated)
	assert.Equal(t, f.ws.BaseDir(), filepath.Dir(res.Workspace.Dir))
	assert.True(t, strings.HasPrefix(filepath.Base(res.Workspace.Dir), "manim_work_"))
	assert.Equal(t, filepath.Join(res.Workspace.Dir, "scene.py"), res.Script.Path)
	assert.Equal(t, filepath.Join(res.Workspace.Dir, MediaDir), res.SearchDir)
	assert.Equal(t, []string{video}, res.Videos)

	got, err := os.ReadFile(res.Script.Path)
	require.NoError(t, err)
	assert.Equal(t, sceneCode, string(got))

	snap := f.hub.SnapshotSince(0)
	require.NotEmpty(t, snap)
	assert.Equal(t, events.TypeScriptCreated, snap[0].Type)
}

func TestCompleteRendersTheScriptItCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A newer workspace appearing mid-request must not be picked up.
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req render.Request) (render.Result, error) {
			_, err := f.ws.Generate(ctx)
			require.NoError(t, err)
			return render.Result{}, nil
		})

	res, err := f.orch.Complete(ctx, CompleteRequest{Code: sceneCode, ScriptName: "intro"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(res.Workspace.Dir, "intro.py"), res.Script.Path)
	assert.Empty(t, res.Videos)
}

func TestCompleteUsesOutputDirForSearch(t *testing.T) {
	f := newFixture(t)
	scriptDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	var video string
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req render.Request) (render.Result, error) {
			assert.Equal(t, "high", req.Quality)
			video = fakeVideo(t, req.OutputDir)
			return render.Result{}, nil
		})

	res, err := f.orch.Complete(context.Background(), CompleteRequest{
		Code:      sceneCode,
		ScriptDir: scriptDir,
		OutputDir: outDir,
		Quality:   "high",
	})
	require.NoError(t, err)
	assert.False(t, res.Workspace.Generated)
	assert.Equal(t, res.OutputDir, res.SearchDir)
	assert.Equal(t, []string{video}, res.Videos)
}

func TestCompleteRenderFailureRemovesGeneratedWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(
		render.Result{ExitCode: 1, Stderr: "boom"},
		toolerr.New(toolerr.KindRender, "", "Render failed with exit code 1: boom"),
	)

	res, err := f.orch.Complete(ctx, CompleteRequest{Code: sceneCode})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindRender))
	assert.True(t, strings.HasPrefix(err.Error(), "Complete workflow failed: "))

	_, statErr := os.Stat(res.Workspace.Dir)
	assert.True(t, os.IsNotExist(statErr))

	left, err := f.ws.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCompleteRenderFailureKeepsCallerDir(t *testing.T) {
	f := newFixture(t)
	scriptDir := t.TempDir()

	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(
		render.Result{ExitCode: -1},
		toolerr.New(toolerr.KindSpawn, "start renderer", "executable file not found"),
	)

	_, err := f.orch.Complete(context.Background(), CompleteRequest{Code: sceneCode, ScriptDir: scriptDir})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindSpawn))

	_, statErr := os.Stat(filepath.Join(scriptDir, "scene.py"))
	assert.NoError(t, statErr)
}

func TestCompleteValidationFailureShortCircuits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Complete(ctx, CompleteRequest{Code: "import os\n"})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindValidation))
	assert.Equal(t, "Complete workflow failed: Potentially dangerous code pattern detected: import os", err.Error())

	left, err := f.ws.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCompleteInvalidQuality(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Complete(context.Background(), CompleteRequest{Code: sceneCode, Quality: "4k"})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindInvalidArgument))
}

func TestCreateWithoutValidation(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	ws, sc, err := f.orch.Create(context.Background(), CreateRequest{Code: "import os\n", ScriptDir: dir})
	require.NoError(t, err)
	assert.False(t, ws.Generated)
	assert.Equal(t, "scene", sc.Name)
	assert.Equal(t, script.Digest("import os\n"), sc.Digest)
}

func TestCreateWriteFailureRemovesGeneratedWorkspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	ws := wsmocks.NewMockManager(ctrl)
	orch := New(Options{Workspaces: ws, Renderer: rendermocks.NewMockRenderer(ctrl)})

	generated := workspace.Workspace{Dir: filepath.Join(t.TempDir(), "missing", "manim_work_00000000"), Generated: true}
	ws.EXPECT().ResolveOrGenerate(gomock.Any(), "").Return(generated, nil)
	ws.EXPECT().Remove(generated).Return(nil)

	_, _, err := orch.Create(context.Background(), CreateRequest{Code: sceneCode})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindFilesystem))
}

func TestCompleteLogsRemoveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ws := wsmocks.NewMockManager(ctrl)
	renderer := rendermocks.NewMockRenderer(ctrl)
	orch := New(Options{Workspaces: ws, Renderer: renderer})

	generated := workspace.Workspace{Dir: t.TempDir(), Generated: true}
	ws.EXPECT().ResolveOrGenerate(gomock.Any(), "").Return(generated, nil)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(render.Result{}, toolerr.New(toolerr.KindRender, "", "render timed out"))
	ws.EXPECT().Remove(generated).Return(errors.New("busy"))

	_, err := orch.Complete(context.Background(), CompleteRequest{Code: sceneCode})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindRender))
}

func TestExecuteUsesGeneratedWorkDir(t *testing.T) {
	f := newFixture(t)

	var video string
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req render.Request) (render.Result, error) {
			assert.Empty(t, req.Quality)
			assert.True(t, req.Preview)
			assert.Equal(t, filepath.Dir(req.ScriptPath), req.WorkDir)
			video = fakeVideo(t, filepath.Join(req.WorkDir, MediaDir))
			return render.Result{Stdout: "done"}, nil
		})

	res, err := f.orch.Execute(context.Background(), ExecuteRequest{Code: sceneCode})
	require.NoError(t, err)
	assert.Equal(t, f.ws.BaseDir(), filepath.Dir(res.WorkDir))
	assert.Equal(t, filepath.Join(res.WorkDir, "scene.py"), res.Script.Path)
	assert.Equal(t, filepath.Join(res.WorkDir, MediaDir), res.OutputDir)
	assert.Equal(t, []string{video}, res.Videos)
	assert.Equal(t, "done", res.Render.Stdout)
}

func TestExecuteCustomScriptDirFailure(t *testing.T) {
	f := newFixture(t)
	scriptDir := filepath.Join(t.TempDir(), "scripts")

	var workDir string
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req render.Request) (render.Result, error) {
			workDir = req.WorkDir
			assert.Equal(t, filepath.Join(scriptDir, "scene.py"), req.ScriptPath)
			return render.Result{ExitCode: 2}, toolerr.New(toolerr.KindRender, "", "Render failed with exit code 2: ")
		})

	_, err := f.orch.Execute(context.Background(), ExecuteRequest{Code: sceneCode, ScriptDir: scriptDir})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindRender))

	_, statErr := os.Stat(workDir)
	assert.True(t, os.IsNotExist(statErr), "generated work dir should be removed")
	_, statErr = os.Stat(filepath.Join(scriptDir, "scene.py"))
	assert.NoError(t, statErr, "caller script dir should be kept")
}

func TestExecuteValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Execute(context.Background(), ExecuteRequest{Code: "x = eval('1')"})
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindValidation))
}
