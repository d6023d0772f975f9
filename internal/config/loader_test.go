package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	path := writeConfig(t, t.TempDir(), "service:\n  log_level: DEBUG\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, "json", cfg.Service.LogFormat)
	assert.Equal(t, "manim", cfg.Render.Executable)
	assert.Equal(t, "medium", cfg.Render.DefaultQuality)
	assert.Equal(t, "*.mp4", cfg.Render.VideoPattern)
	assert.Equal(t, "manim_work_", cfg.Workspace.Prefix)
	assert.Equal(t, MemoryPath, cfg.History.Path)
	assert.True(t, cfg.Workspace.CleanupRestricted())
	assert.True(t, cfg.Render.PreviewDefault())
	assert.Equal(t, path, cfg.SourcePath)
}

func TestLoadFullFile(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	t.Setenv("MANIMCP_TEST_KEY", "s3cret")
	base := t.TempDir()
	path := writeConfig(t, t.TempDir(), `
service:
  name: renderer
  log_format: text
workspace:
  base_dir: `+base+`
  prefix: job_
  restrict_cleanup: false
render:
  executable: /opt/manim/bin/manim
  default_quality: high
  preview: false
  timeout: 90s
  max_concurrent: 2
history:
  path: /var/lib/manimcp/history.db
api:
  enabled: true
  listen: 0.0.0.0:9000
  auth:
    api_key: ${MANIMCP_TEST_KEY}
  cors_origins:
    - https://dash.example
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "renderer", cfg.Service.Name)
	assert.Equal(t, base, cfg.Workspace.BaseDir)
	assert.Equal(t, "job_", cfg.Workspace.Prefix)
	assert.False(t, cfg.Workspace.CleanupRestricted())
	assert.Equal(t, "/opt/manim/bin/manim", cfg.Render.Executable)
	assert.Equal(t, "high", cfg.Render.DefaultQuality)
	assert.False(t, cfg.Render.PreviewDefault())
	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 2, cfg.Render.MaxConcurrent)
	assert.False(t, cfg.History.InMemory())
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.Listen)
	assert.Equal(t, "s3cret", cfg.API.Auth.APIKey)
	assert.Equal(t, []string{"https://dash.example"}, cfg.API.CORSOrigins)
}

func TestLoadDirectoryLooksForConfigFile(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	dir := t.TempDir()
	writeConfig(t, dir, "render:\n  default_quality: low\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "low", cfg.Render.DefaultQuality)
}

func TestExecutableEnvOverridesFile(t *testing.T) {
	t.Setenv(ExecutableEnv, "/usr/local/bin/manimgl")
	path := writeConfig(t, t.TempDir(), "render:\n  executable: manim\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/manimgl", cfg.Render.Executable)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	t.Setenv("MANIMCP_UNSET_KEY_FOR_TEST", "")
	os.Unsetenv("MANIMCP_UNSET_KEY_FOR_TEST")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "bad log level",
			body:    "service:\n  log_level: chatty\n",
			wantErr: "service.log_level",
		},
		{
			name:    "bad quality",
			body:    "render:\n  default_quality: ultra\n",
			wantErr: "render.default_quality",
		},
		{
			name:    "bad pattern",
			body:    "render:\n  video_pattern: \"[\"\n",
			wantErr: "render.video_pattern",
		},
		{
			name:    "prefix with separator",
			body:    "workspace:\n  prefix: a/b\n",
			wantErr: "workspace.prefix",
		},
		{
			name:    "api without key",
			body:    "api:\n  enabled: true\n",
			wantErr: "api.auth.api_key is required",
		},
		{
			name:    "api key env unset",
			body:    "api:\n  enabled: true\n  auth:\n    api_key: ${MANIMCP_UNSET_KEY_FOR_TEST}\n",
			wantErr: "${MANIMCP_UNSET_KEY_FOR_TEST} is not set",
		},
		{
			name:    "negative concurrency",
			body:    "render:\n  max_concurrent: -1\n",
			wantErr: "render.max_concurrent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadOrDefaultWithoutConfig(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	t.Setenv(ConfigEnv, "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, cfg.SourcePath)
	assert.Equal(t, DefaultBaseDir(), cfg.Workspace.BaseDir)
}

func TestLoadOrDefaultUsesEnvConfig(t *testing.T) {
	t.Setenv(ExecutableEnv, "")
	path := writeConfig(t, t.TempDir(), "render:\n  default_quality: production\n")
	t.Setenv(ConfigEnv, path)

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Render.DefaultQuality)
}

func TestDiscoverUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnv, "")

	dir := filepath.Join(home, ".config", "manimcp")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	want := writeConfig(t, dir, "service:\n  name: x\n")

	got, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverNothing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(ConfigEnv, "")

	_, err := Discover()
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestIsValidQuality(t *testing.T) {
	for _, q := range []string{"low", "medium", "high", "production"} {
		assert.True(t, IsValidQuality(q), q)
	}
	assert.False(t, IsValidQuality("4k"))
	assert.False(t, IsValidQuality(""))
}
