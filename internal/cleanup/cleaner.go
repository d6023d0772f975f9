// Package cleanup deletes files and directories on behalf of callers.
package cleanup

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"syscall"

	"github.com/mattjoyce/manimcp/internal/events"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// Outcome describes what Remove did.
type Outcome string

const (
	FileDeleted     Outcome = "file_deleted"
	EmptyDirDeleted Outcome = "empty_dir_deleted"
	TreeDeleted     Outcome = "tree_deleted"
	NotEmpty        Outcome = "not_empty"
	NotFound        Outcome = "not_found"
)

// Resolver resolves caller paths and tests containment in the base directory.
type Resolver interface {
	Resolve(path string) (string, error)
	Contains(path string) bool
}

// Cleaner removes filesystem entries under one containment policy.
type Cleaner struct {
	resolver Resolver
	restrict bool
	events   events.Publisher
	logger   *slog.Logger
}

// New creates a Cleaner. When restrict is true every target must resolve
// inside the resolver's base directory.
func New(resolver Resolver, restrict bool, pub events.Publisher) *Cleaner {
	if pub == nil {
		pub = events.Discard
	}
	return &Cleaner{
		resolver: resolver,
		restrict: restrict,
		events:   pub,
		logger:   log.WithComponent("cleanup"),
	}
}

// Restricted reports whether cleanup is confined to the base directory.
func (c *Cleaner) Restricted() bool {
	return c.restrict
}

// Remove deletes path. A non-empty directory is only removed when recursive
// is set; otherwise NotEmpty is returned and nothing changes. The returned
// string is the resolved path.
func (c *Cleaner) Remove(path string, recursive bool) (string, Outcome, error) {
	target, err := c.authorize(path, "Invalid target path: must be within the media directory")
	if err != nil {
		return target, "", err
	}

	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return target, NotFound, nil
	}
	if err != nil {
		return target, "", toolerr.Wrap(toolerr.KindFilesystem, "cleanup", err)
	}

	var outcome Outcome
	switch {
	case !info.IsDir():
		if err := os.Remove(target); err != nil {
			return target, "", toolerr.Wrap(toolerr.KindFilesystem, "delete file", err)
		}
		outcome = FileDeleted
	case recursive:
		if err := os.RemoveAll(target); err != nil {
			return target, "", toolerr.Wrap(toolerr.KindFilesystem, "delete directory", err)
		}
		outcome = TreeDeleted
	default:
		if err := os.Remove(target); err != nil {
			if isNotEmpty(err) {
				return target, NotEmpty, nil
			}
			return target, "", toolerr.Wrap(toolerr.KindFilesystem, "delete directory", err)
		}
		outcome = EmptyDirDeleted
	}

	c.done(target, outcome)
	return target, outcome, nil
}

// RemoveWorkspace deletes the directory tree at path. A missing path or a
// path that is not a directory yields NotFound.
func (c *Cleaner) RemoveWorkspace(path string) (string, Outcome, error) {
	target, err := c.authorize(path, "Invalid work directory: must be within the media directory")
	if err != nil {
		return target, "", err
	}

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return target, NotFound, nil
	}
	if err != nil {
		return target, "", toolerr.Wrap(toolerr.KindFilesystem, "cleanup workspace", err)
	}

	if err := os.RemoveAll(target); err != nil {
		return target, "", toolerr.Wrap(toolerr.KindFilesystem, "cleanup workspace", err)
	}
	c.done(target, TreeDeleted)
	return target, TreeDeleted, nil
}

func (c *Cleaner) authorize(path, rejection string) (string, error) {
	target, err := c.resolver.Resolve(path)
	if err != nil {
		return path, err
	}
	if c.restrict && !c.resolver.Contains(target) {
		c.logger.Warn("cleanup target rejected", "path", target)
		return target, toolerr.New(toolerr.KindPathRejected, "", rejection)
	}
	return target, nil
}

func (c *Cleaner) done(target string, outcome Outcome) {
	c.logger.Info("cleanup completed", "path", target, "outcome", string(outcome))
	c.events.Publish(events.TypeCleanupCompleted, events.Cleanup{Path: target, Outcome: string(outcome)})
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}
