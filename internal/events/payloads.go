package events

// ScriptCreated is the payload of TypeScriptCreated.
type ScriptCreated struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Bytes  int    `json:"bytes"`
}

// Render is the payload of the render.* events.
type Render struct {
	RenderID   string `json:"render_id"`
	ScriptPath string `json:"script_path"`
	Quality    string `json:"quality,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Cleanup is the payload of TypeCleanupCompleted.
type Cleanup struct {
	Path    string `json:"path"`
	Outcome string `json:"outcome"`
}

// ToolCalled is the payload of TypeToolCalled.
type ToolCalled struct {
	Tool    string `json:"tool"`
	IsError bool   `json:"is_error"`
}
