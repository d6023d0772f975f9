package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// DefaultPrefix names generated workspaces.
const DefaultPrefix = "manim_work_"

const suffixLen = 8

// fsWorkspaceManager manages workspace directories on local disk.
type fsWorkspaceManager struct {
	baseDir string
	prefix  string
	now     func() time.Time
	newID   func() string
}

var _ Manager = (*fsWorkspaceManager)(nil)

// NewFSManager creates a filesystem-backed workspace manager rooted at
// baseDir. The base directory is created if missing.
func NewFSManager(baseDir, prefix string) (*fsWorkspaceManager, error) {
	trimmed := strings.TrimSpace(baseDir)
	if trimmed == "" {
		return nil, fmt.Errorf("workspace base directory is empty")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if strings.ContainsAny(prefix, `/\`) {
		return nil, fmt.Errorf("workspace prefix %q must not contain path separators", prefix)
	}

	m := &fsWorkspaceManager{
		prefix: prefix,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}

	base, err := m.Resolve(trimmed)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace base directory: %w", err)
	}
	// Resolve again now that the directory exists so symlinked parents
	// compare equal in Contains.
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	m.baseDir = base

	return m, nil
}

func (m *fsWorkspaceManager) BaseDir() string {
	return m.baseDir
}

func (m *fsWorkspaceManager) Resolve(path string) (string, error) {
	expanded, err := expandHome(strings.TrimSpace(path))
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindInvalidArgument, "resolve path", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindInvalidArgument, "resolve path", err)
	}
	return resolveExisting(abs), nil
}

func (m *fsWorkspaceManager) Ensure(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return toolerr.Wrap(toolerr.KindFilesystem, "create directory", err)
	}
	return nil
}

func (m *fsWorkspaceManager) Generate(ctx context.Context) (Workspace, error) {
	if err := ctx.Err(); err != nil {
		return Workspace{}, err
	}
	if err := m.Ensure(m.baseDir); err != nil {
		return Workspace{}, err
	}

	// A collision needs two uuids sharing 32 bits; retry a few times anyway.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		path := filepath.Join(m.baseDir, m.prefix+m.suffix())
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return Workspace{Dir: path, Generated: true}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return Workspace{}, toolerr.Wrap(toolerr.KindFilesystem, "create workspace", err)
		}
		lastErr = err
	}
	return Workspace{}, toolerr.Wrap(toolerr.KindFilesystem, "create workspace", lastErr)
}

func (m *fsWorkspaceManager) ResolveOrGenerate(ctx context.Context, path string) (Workspace, error) {
	if strings.TrimSpace(path) == "" {
		return m.Generate(ctx)
	}
	if err := ctx.Err(); err != nil {
		return Workspace{}, err
	}

	dir, err := m.Resolve(path)
	if err != nil {
		return Workspace{}, err
	}
	if err := m.Ensure(dir); err != nil {
		return Workspace{}, err
	}
	return Workspace{Dir: dir}, nil
}

func (m *fsWorkspaceManager) Contains(path string) bool {
	resolved, err := m.Resolve(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.baseDir, resolved)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (m *fsWorkspaceManager) List(ctx context.Context) ([]Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindFilesystem, "list workspaces", err)
	}

	var out []Workspace
	for _, entry := range entries {
		if entry.IsDir() && m.isGeneratedName(entry.Name()) {
			out = append(out, Workspace{Dir: filepath.Join(m.baseDir, entry.Name()), Generated: true})
		}
	}
	return out, nil
}

func (m *fsWorkspaceManager) Remove(ws Workspace) error {
	if !ws.Generated || ws.Dir == "" {
		return nil
	}
	if !m.Contains(ws.Dir) || m.isBase(ws.Dir) {
		return toolerr.Newf(toolerr.KindPathRejected, "remove workspace", "%s is not a generated workspace", ws.Dir)
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		return toolerr.Wrap(toolerr.KindFilesystem, "remove workspace", err)
	}
	return nil
}

// Prune removes generated workspace directories whose modification time is
// older than olderThan. Directories without the generated prefix are kept.
func (m *fsWorkspaceManager) Prune(ctx context.Context, olderThan time.Duration) (PruneReport, error) {
	if err := ctx.Err(); err != nil {
		return PruneReport{}, err
	}
	if olderThan <= 0 {
		return PruneReport{}, fmt.Errorf("olderThan must be positive")
	}

	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return PruneReport{}, nil
	}
	if err != nil {
		return PruneReport{}, fmt.Errorf("read workspace base directory: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	report := PruneReport{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.IsDir() || !m.isGeneratedName(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return report, fmt.Errorf("read workspace entry info %q: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			report.Kept++
			continue
		}

		path := filepath.Join(m.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return report, fmt.Errorf("remove workspace %q: %w", entry.Name(), err)
		}
		report.DeletedDirs++
	}

	return report, nil
}

func (m *fsWorkspaceManager) suffix() string {
	id := strings.ReplaceAll(m.newID(), "-", "")
	if len(id) > suffixLen {
		id = id[:suffixLen]
	}
	return id
}

func (m *fsWorkspaceManager) isBase(path string) bool {
	resolved, err := m.Resolve(path)
	return err == nil && resolved == m.baseDir
}

func (m *fsWorkspaceManager) isGeneratedName(name string) bool {
	rest, ok := strings.CutPrefix(name, m.prefix)
	if !ok || len(rest) != suffixLen {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of an
// absolute path and re-appends the missing tail.
func resolveExisting(abs string) string {
	var tail []string
	cur := filepath.Clean(abs)
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return filepath.Clean(abs)
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
