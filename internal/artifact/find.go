// Package artifact locates rendered video files.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// DefaultPattern matches the renderer's video output.
const DefaultPattern = "*.mp4"

// Find returns regular files under dir whose base name matches pattern.
// A missing dir yields an empty result. Results are sorted.
func Find(dir, pattern string, recursive bool) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "", "Invalid pattern %q: %v", pattern, err)
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindFilesystem, "search videos", err)
	}
	if !info.IsDir() {
		return []string{}, nil
	}

	if !recursive {
		return findShallow(dir, pattern)
	}

	matches := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped rather than failing the search.
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindFilesystem, "search videos", err)
	}
	sort.Strings(matches)
	return matches, nil
}

func findShallow(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindFilesystem, "search videos", err)
	}
	matches := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches, nil
}

// FindEach searches each dir recursively and concatenates the results.
func FindEach(dirs []string, pattern string) ([]string, error) {
	out := []string{}
	for _, dir := range dirs {
		found, err := Find(dir, pattern, true)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
