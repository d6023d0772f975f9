package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete manimcp configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Render    RenderConfig    `yaml:"render"`
	History   HistoryConfig   `yaml:"history"`
	API       APIConfig       `yaml:"api,omitempty"`

	// SourcePath is the file the config was loaded from; empty for defaults.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// WorkspaceConfig controls where scripts and renders land.
type WorkspaceConfig struct {
	// BaseDir is the process-wide default directory. Empty means
	// <directory of the executable>/media.
	BaseDir string `yaml:"base_dir"`
	// Prefix is prepended to generated workspace names.
	Prefix string `yaml:"prefix"`
	// RestrictCleanup limits cleanup targets to descendants of BaseDir.
	RestrictCleanup *bool `yaml:"restrict_cleanup,omitempty"`
}

// CleanupRestricted reports whether cleanup is confined to the base directory.
func (w WorkspaceConfig) CleanupRestricted() bool {
	return w.RestrictCleanup == nil || *w.RestrictCleanup
}

// RenderConfig defines how the renderer is invoked.
type RenderConfig struct {
	Executable     string        `yaml:"executable"`
	DefaultQuality string        `yaml:"default_quality"`
	Preview        *bool         `yaml:"preview,omitempty"`
	VideoPattern   string        `yaml:"video_pattern"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxConcurrent  int           `yaml:"max_concurrent,omitempty"`
}

// PreviewDefault returns the preview flag used when a caller omits it.
func (r RenderConfig) PreviewDefault() bool {
	return r.Preview == nil || *r.Preview
}

// HistoryConfig defines the render history store.
type HistoryConfig struct {
	// Path is a SQLite database path. ":memory:" keeps history for the
	// lifetime of the process only.
	Path string `yaml:"path"`
}

// InMemory reports whether history lives only in process memory.
func (h HistoryConfig) InMemory() bool {
	return h.Path == "" || h.Path == MemoryPath
}

// APIConfig defines the optional HTTP API server.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the admin bearer token (scope "*").
	APIKey string           `yaml:"api_key"`
	Tokens []APITokenConfig `yaml:"tokens,omitempty"`
}

// APITokenConfig is a bearer token limited to a set of scopes
// (tools:ro, tools:rw, renders:ro, events:ro).
type APITokenConfig struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

const (
	// MemoryPath selects an in-memory SQLite database.
	MemoryPath = ":memory:"

	// ExecutableEnv overrides render.executable.
	ExecutableEnv = "MANIM_EXECUTABLE"

	// ConfigEnv points at a config file.
	ConfigEnv = "MANIMCP_CONFIG"
)

// Defaults returns a Config with the shipped defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "manim-mcp-server",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Workspace: WorkspaceConfig{
			BaseDir: DefaultBaseDir(),
			Prefix:  "manim_work_",
		},
		Render: RenderConfig{
			Executable:     "manim",
			DefaultQuality: "medium",
			VideoPattern:   "*.mp4",
		},
		History: HistoryConfig{
			Path: MemoryPath,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8765",
		},
	}
}

// DefaultBaseDir returns <directory of the running executable>/media, falling
// back to ./media when the executable path cannot be determined.
func DefaultBaseDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(".", "media")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "media")
}
