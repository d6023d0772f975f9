// Package inspect summarizes the contents of a workspace directory.
package inspect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// sampleLimit caps the file names listed per category.
const sampleLimit = 5

// Stats is the structured representation of a workspace report.
type Stats struct {
	Path        string   `json:"path"`
	Found       bool     `json:"found"`
	IsDir       bool     `json:"is_dir"`
	ScriptCount int      `json:"script_count"`
	VideoCount  int      `json:"video_count"`
	TotalBytes  int64    `json:"total_bytes"`
	Scripts     []string `json:"scripts"`
	Videos      []string `json:"videos"`
}

// Inspect walks dir and counts scripts, videos and bytes. A missing dir is
// reported through Stats.Found rather than an error.
func Inspect(dir string) (Stats, error) {
	stats := Stats{Path: dir, Scripts: []string{}, Videos: []string{}}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return stats, toolerr.Wrap(toolerr.KindFilesystem, "inspect workspace", err)
	}
	stats.Found = true
	stats.IsDir = info.IsDir()
	if !stats.IsDir {
		return stats, nil
	}

	var scripts, videos []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		stats.TotalBytes += fi.Size()

		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".py":
			scripts = append(scripts, d.Name())
		case ".mp4":
			videos = append(videos, d.Name())
		}
		return nil
	})
	if err != nil {
		return stats, toolerr.Wrap(toolerr.KindFilesystem, "inspect workspace", err)
	}

	stats.ScriptCount = len(scripts)
	stats.VideoCount = len(videos)
	stats.Scripts = sample(scripts)
	stats.Videos = sample(videos)
	return stats, nil
}

// Report renders a terminal-friendly summary.
func (s Stats) Report() string {
	if !s.Found {
		return fmt.Sprintf("⚠️ Workspace not found: %s", s.Path)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "📁 Workspace: %s\n", s.Path)
	if !s.IsDir {
		return strings.TrimRight(out.String(), "\n")
	}

	fmt.Fprintf(&out, "📄 Python files: %d\n", s.ScriptCount)
	fmt.Fprintf(&out, "🎬 Video files: %d\n", s.VideoCount)
	fmt.Fprintf(&out, "📊 Total size: %.2f MB\n", float64(s.TotalBytes)/1024/1024)

	writeSection(&out, "📄 Python files:", s.Scripts, s.ScriptCount)
	writeSection(&out, "🎬 Video files:", s.Videos, s.VideoCount)

	return strings.TrimRight(out.String(), "\n")
}

func writeSection(out *strings.Builder, title string, names []string, total int) {
	if total == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	for _, name := range names {
		fmt.Fprintf(out, "  - %s\n", name)
	}
	if total > len(names) {
		fmt.Fprintf(out, "  ... and %d more\n", total-len(names))
	}
}

func sample(names []string) []string {
	sort.Strings(names)
	if len(names) > sampleLimit {
		names = names[:sampleLimit]
	}
	if names == nil {
		return []string{}
	}
	return names
}
