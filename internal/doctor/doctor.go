// Package doctor runs preflight checks against a loaded configuration and
// the host it will run on.
package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/manimcp/internal/auth"
	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/storage"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

var knownScopes = map[string]bool{
	auth.ScopeAll:        true,
	auth.ScopeToolsRead:  true,
	auth.ScopeToolsWrite: true,
	auth.ScopeRenders:    true,
	auth.ScopeEvents:     true,
}

// Doctor checks a configuration and its environment.
type Doctor struct {
	cfg      *config.Config
	lookPath func(string) (string, error)
}

// New creates a Doctor for a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg, lookPath: exec.LookPath}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateRenderer(r)
	d.validateRenderConfig(r)
	d.validateWorkspace(r)
	d.validateHistory(r)
	d.validateAPIConfig(r)
	d.validateTokenScopes(r)
	d.warnLegacyAuth(r)
	d.validateCORS(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateServiceConfig(r *Result) {
	switch strings.ToLower(d.cfg.Service.LogFormat) {
	case "", "json", "text":
	default:
		d.addWarning(r, "service", "service.log_format",
			fmt.Sprintf("unknown log format %q; json will be used", d.cfg.Service.LogFormat))
	}
}

// validateRenderer checks that the renderer executable resolves.
func (d *Doctor) validateRenderer(r *Result) {
	exe := d.cfg.Render.Executable
	if exe == "" {
		d.addError(r, "renderer", "render.executable", "render.executable is required")
		return
	}
	if _, err := d.lookPath(exe); err != nil {
		d.addError(r, "renderer", "render.executable",
			fmt.Sprintf("renderer %q not found: %v (set %s or render.executable)", exe, err, config.ExecutableEnv))
	}
}

func (d *Doctor) validateRenderConfig(r *Result) {
	rc := d.cfg.Render
	if rc.DefaultQuality != "" && !config.IsValidQuality(rc.DefaultQuality) {
		d.addError(r, "render", "render.default_quality",
			fmt.Sprintf("unknown quality %q (expected low, medium, high or production)", rc.DefaultQuality))
	}
	if _, err := filepath.Match(rc.VideoPattern, "probe.mp4"); err != nil {
		d.addError(r, "render", "render.video_pattern",
			fmt.Sprintf("invalid pattern %q: %v", rc.VideoPattern, err))
	}
	if rc.Timeout == 0 {
		d.addWarning(r, "render", "render.timeout", "no render timeout; a hung renderer blocks its caller indefinitely")
	}
}

// validateWorkspace checks that the base directory is usable.
func (d *Doctor) validateWorkspace(r *Result) {
	ws := d.cfg.Workspace
	if ws.BaseDir == "" {
		d.addError(r, "workspace", "workspace.base_dir", "workspace.base_dir is required")
		return
	}

	info, err := os.Stat(ws.BaseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.addWarning(r, "workspace", "workspace.base_dir",
			fmt.Sprintf("%s does not exist; it will be created at startup", ws.BaseDir))
	case err != nil:
		d.addError(r, "workspace", "workspace.base_dir", err.Error())
	case !info.IsDir():
		d.addError(r, "workspace", "workspace.base_dir", fmt.Sprintf("%s is not a directory", ws.BaseDir))
	default:
		probe, err := os.CreateTemp(ws.BaseDir, ".manimcp-doctor-*")
		if err != nil {
			d.addError(r, "workspace", "workspace.base_dir", fmt.Sprintf("%s is not writable: %v", ws.BaseDir, err))
			return
		}
		_ = probe.Close()
		_ = os.Remove(probe.Name())
	}

	if !ws.CleanupRestricted() {
		d.addWarning(r, "workspace", "workspace.restrict_cleanup",
			"cleanup may delete any path the process can write")
	}
}

func (d *Doctor) validateHistory(r *Result) {
	if d.cfg.History.InMemory() {
		return
	}
	if err := storage.CheckFilesystem(d.cfg.History.Path); err != nil {
		d.addError(r, "history", "history.path", err.Error())
	}
}

// validateAPIConfig checks API server settings.
func (d *Doctor) validateAPIConfig(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when API is enabled")
	}
	if d.cfg.API.Auth.APIKey == "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addError(r, "api", "api.auth", "API enabled but no authentication configured")
	}
}

// validateTokenScopes checks that every scope is one the API understands.
func (d *Doctor) validateTokenScopes(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		if token.Token == "" {
			d.addWarning(r, "env_vars", fmt.Sprintf("api.auth.tokens[%d].token", i),
				"token value is empty (possibly unresolved environment variable)")
		}
		for j, scope := range token.Scopes {
			if !knownScopes[strings.TrimSpace(scope)] {
				d.addError(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].scopes[%d]", i, j),
					fmt.Sprintf("unknown scope %q (expected tools:ro, tools:rw, renders:ro, events:ro or *)", scope))
			}
		}
	}
}

func (d *Doctor) warnLegacyAuth(r *Result) {
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) > 0 {
		d.addWarning(r, "auth", "api.auth",
			"both api_key and tokens configured; api_key grants full access")
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *Doctor) validateCORS(r *Result) {
	for i, origin := range d.cfg.API.CORSOrigins {
		field := fmt.Sprintf("api.cors_origins[%d]", i)
		switch {
		case origin == "*":
			d.addWarning(r, "api", field, "any web page may call the API with a leaked token")
		case !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://"):
			d.addError(r, "api", field, fmt.Sprintf("origin %q must start with http:// or https://", origin))
		}
	}
}
