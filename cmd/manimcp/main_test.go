package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/manimcp/internal/config"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

// writeTestConfig writes a config rooted in a fresh base directory and
// returns the config path and the base directory.
func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	t.Setenv(config.ExecutableEnv, "")

	dir := t.TempDir()
	base := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(base, 0o755))

	body := "workspace:\n  base_dir: " + base + "\nrender:\n  executable: sh\n" + extra
	path := filepath.Join(dir, "manimcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, base
}

func TestServeAnswersMCPUntilInputCloses(t *testing.T) {
	path, _ := writeTestConfig(t, "")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"validate_script","arguments":{"code":"from manim import *"}}}`,
	}, "\n") + "\n")
	var out strings.Builder

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, serve(ctx, cfg, in, &out))

	byID := map[string]map[string]any{}
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		id, _ := json.Marshal(msg["id"])
		byID[string(id)] = msg
	}
	require.Len(t, byID, 3, "notification must not be answered")

	initResult := byID["1"]["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", initResult["protocolVersion"])

	list := byID["2"]["result"].(map[string]any)["tools"].([]any)
	assert.Len(t, list, 11)

	call := byID["3"]["result"].(map[string]any)
	assert.NotEqual(t, true, call["isError"])
}

func TestServeAPIOnlyStopsOnCancel(t *testing.T) {
	path, _ := writeTestConfig(t, "api:\n  enabled: true\n  listen: 127.0.0.1:0\n  auth:\n    api_key: test-key\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, nil, io.Discard) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestRunServeRejectsNoStdioWithoutAPI(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runServe([]string{"--config", path, "--no-stdio"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--no-stdio requires the HTTP API")
}

func TestRunServeRequiresKeyForAPIFlag(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runServe([]string{"--config", path, "--api"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "api.auth.api_key")
}

func TestRunDoctorFormats(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runDoctor([]string{"--config", path, "--format", "json"})
	})
	require.Equal(t, 0, code, "stderr: %s\nstdout: %s", stderr, stdout)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, true, result["valid"])

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runDoctor([]string{"--config", path})
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Config: "+path)

	code, _, stderr = captureOutputWithExitCode(t, func() int {
		return runDoctor([]string{"--config", path, "--format", "yaml"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown format: yaml")
}

func TestRunDoctorFailsForMissingRenderer(t *testing.T) {
	path, _ := writeTestConfig(t, "")
	t.Setenv(config.ExecutableEnv, "manimcp-no-such-renderer")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runDoctor([]string{"--config", path})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "manimcp-no-such-renderer")
}

func TestRunWorkspaceInfoAndPrune(t *testing.T) {
	path, base := writeTestConfig(t, "")
	old := filepath.Join(base, "manim_work_0a1b2c3d")
	fresh := filepath.Join(base, "manim_work_4e5f6a7b")
	require.NoError(t, os.MkdirAll(filepath.Join(old, "media"), 0o755))
	require.NoError(t, os.MkdirAll(fresh, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fresh, "scene.py"), []byte("from manim import *\n"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runWorkspaceNoun([]string{"info", "--config", path})
	})
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Generated workspaces (2):")
	assert.Contains(t, stdout, "manim_work_4e5f6a7b  scripts=1 videos=0")

	code, stdout, _ = captureOutputWithExitCode(t, func() int {
		return runWorkspaceNoun([]string{"info", fresh})
	})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "scene.py")

	code, stdout, stderr = captureOutputWithExitCode(t, func() int {
		return runWorkspaceNoun([]string{"prune", "--config", path, "--older-than", "24h"})
	})
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Pruned 1 workspace(s), kept 1.")
	assert.NoDirExists(t, old)
	assert.DirExists(t, fresh)
}

func TestRunWorkspaceNounErrors(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runWorkspaceNoun([]string{"explode"})
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown workspace action: explode")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runWorkspaceNoun(nil)
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Usage: manimcp workspace")
}

func TestWatchTarget(t *testing.T) {
	path, _ := writeTestConfig(t, "api:\n  listen: 127.0.0.1:9191\n  auth:\n    api_key: from-config\n")

	t.Setenv(apiKeyEnv, "")
	url, key, err := watchTarget(path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9191", url)
	assert.Equal(t, "from-config", key)

	t.Setenv(apiKeyEnv, "from-env")
	url, key, err = watchTarget(path, "http://example.test:8080/", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8080", url)
	assert.Equal(t, "from-env", key)

	_, key, err = watchTarget(path, "", "from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", key)
}

func TestWatchTargetNeedsKey(t *testing.T) {
	path, _ := writeTestConfig(t, "")
	t.Setenv(apiKeyEnv, "")

	_, _, err := watchTarget(path, "http://localhost:8080", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), apiKeyEnv)
}
