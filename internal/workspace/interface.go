package workspace

import (
	"context"
	"time"
)

// Workspace is a directory that holds scripts and render output.
//
// Generated workspaces were created by the manager under the base directory
// and may be removed when the request that created them fails. Caller
// supplied directories are never removed implicitly.
type Workspace struct {
	Dir       string
	Generated bool
}

// PruneReport summarizes a prune run.
type PruneReport struct {
	DeletedDirs int
	Kept        int
}

//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/mattjoyce/manimcp/internal/workspace Manager

// Manager governs workspace directory lifecycle.
type Manager interface {
	// BaseDir returns the resolved default directory.
	BaseDir() string

	// Resolve expands a leading ~ and returns an absolute path.
	Resolve(path string) (string, error)

	// Ensure creates path and any missing parents. It is idempotent.
	Ensure(path string) error

	// Generate creates a uniquely named directory under the base directory.
	Generate(ctx context.Context) (Workspace, error)

	// ResolveOrGenerate ensures the caller's directory, or generates one when
	// path is empty.
	ResolveOrGenerate(ctx context.Context, path string) (Workspace, error)

	// Contains reports whether path lies inside the base directory.
	Contains(path string) bool

	// List returns the generated workspaces currently under the base
	// directory, sorted by name.
	List(ctx context.Context) ([]Workspace, error)

	// Remove deletes ws if it was generated. Caller directories are left alone.
	Remove(ws Workspace) error

	// Prune removes generated workspaces older than olderThan.
	Prune(ctx context.Context, olderThan time.Duration) (PruneReport, error)
}
