package workspace

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

func newTestManager(t *testing.T) *fsWorkspaceManager {
	t.Helper()
	mgr, err := NewFSManager(filepath.Join(t.TempDir(), "media"), "")
	require.NoError(t, err)
	return mgr
}

func TestNewFSManagerCreatesBase(t *testing.T) {
	mgr := newTestManager(t)

	info, err := os.Stat(mgr.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(mgr.BaseDir()))
}

func TestNewFSManagerRejectsBadInput(t *testing.T) {
	_, err := NewFSManager("  ", "")
	assert.Error(t, err)

	_, err = NewFSManager(t.TempDir(), "a/b")
	assert.Error(t, err)
}

func TestGenerateNamesWorkspace(t *testing.T) {
	mgr := newTestManager(t)

	ws, err := mgr.Generate(context.Background())
	require.NoError(t, err)

	assert.True(t, ws.Generated)
	assert.Equal(t, mgr.BaseDir(), filepath.Dir(ws.Dir))
	assert.Regexp(t, regexp.MustCompile(`^manim_work_[0-9a-f]{8}$`), filepath.Base(ws.Dir))

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	other, err := mgr.Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ws.Dir, other.Dir)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	mgr := newTestManager(t)
	ids := []string{"aaaaaaaa-0000", "aaaaaaaa-1111", "bbbbbbbb-2222"}
	mgr.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := mgr.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manim_work_aaaaaaaa", filepath.Base(first.Dir))

	second, err := mgr.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manim_work_bbbbbbbb", filepath.Base(second.Dir))
}

func TestGenerateHonoursCancelledContext(t *testing.T) {
	mgr := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mgr.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnsureIsIdempotent(t *testing.T) {
	mgr := newTestManager(t)
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, mgr.Ensure(dir))
	require.NoError(t, mgr.Ensure(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureOverFileFails(t *testing.T) {
	mgr := newTestManager(t)
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := mgr.Ensure(file)
	require.Error(t, err)
	assert.True(t, toolerr.Is(err, toolerr.KindFilesystem))
}

func TestResolveOrGenerateUsesCallerDir(t *testing.T) {
	mgr := newTestManager(t)
	dir := filepath.Join(t.TempDir(), "mine")

	ws, err := mgr.ResolveOrGenerate(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, ws.Generated)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, ws.Dir)

	gen, err := mgr.ResolveOrGenerate(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, gen.Generated)
}

func TestResolveExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	mgr := newTestManager(t)

	got, err := mgr.Resolve("~/renders/out")
	require.NoError(t, err)

	resolvedHome, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedHome, "renders", "out"), got)
}

func TestContains(t *testing.T) {
	mgr := newTestManager(t)
	base := mgr.BaseDir()

	assert.True(t, mgr.Contains(base))
	assert.True(t, mgr.Contains(filepath.Join(base, "x")))
	assert.True(t, mgr.Contains(filepath.Join(base, "x", "..", "y")))
	assert.False(t, mgr.Contains(filepath.Join(base, "..")))
	assert.False(t, mgr.Contains(filepath.Join(base, "..", "media-evil")))
	assert.False(t, mgr.Contains(t.TempDir()))
}

func TestContainsFollowsSymlinks(t *testing.T) {
	mgr := newTestManager(t)
	outside := t.TempDir()
	link := filepath.Join(mgr.BaseDir(), "escape")
	require.NoError(t, os.Symlink(outside, link))

	assert.False(t, mgr.Contains(link))
}

func TestRemoveOnlyGenerated(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	gen, err := mgr.Generate(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.Remove(gen))
	_, err = os.Stat(gen.Dir)
	assert.True(t, os.IsNotExist(err))

	callerDir := t.TempDir()
	require.NoError(t, mgr.Remove(Workspace{Dir: callerDir}))
	_, err = os.Stat(callerDir)
	assert.NoError(t, err)

	err = mgr.Remove(Workspace{Dir: callerDir, Generated: true})
	assert.True(t, toolerr.Is(err, toolerr.KindPathRejected))

	err = mgr.Remove(Workspace{Dir: mgr.BaseDir(), Generated: true})
	assert.True(t, toolerr.Is(err, toolerr.KindPathRejected))
}

func TestPrune(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	oldWS, err := mgr.Generate(ctx)
	require.NoError(t, err)
	newWS, err := mgr.Generate(ctx)
	require.NoError(t, err)

	operatorDir := filepath.Join(mgr.BaseDir(), "keep-me")
	require.NoError(t, os.Mkdir(operatorDir, 0o755))

	oldTime := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldWS.Dir, oldTime, oldTime))
	require.NoError(t, os.Chtimes(operatorDir, oldTime, oldTime))

	report, err := mgr.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, PruneReport{DeletedDirs: 1, Kept: 1}, report)

	_, err = os.Stat(oldWS.Dir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newWS.Dir)
	assert.NoError(t, err)
	_, err = os.Stat(operatorDir)
	assert.NoError(t, err)
}

func TestPruneRequiresPositiveAge(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Prune(context.Background(), 0)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	empty, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, err := mgr.Generate(ctx)
	require.NoError(t, err)
	b, err := mgr.Generate(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(mgr.BaseDir(), "manim_work_nothex!!"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mgr.BaseDir(), "manim_work_0000000f"), nil, 0o644))

	got, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Workspace{a, b}, got)
}
