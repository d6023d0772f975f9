package tools

// Tool names.
const (
	CreateScript         = "create_script"
	ValidateScript       = "validate_script"
	RenderAnimation      = "render_animation"
	FindVideos           = "find_videos"
	GetWorkspaceInfo     = "get_workspace_info"
	CleanupFiles         = "cleanup_files"
	ExecuteManimComplete = "execute_manim_complete"
	ExecuteManim         = "execute_manim"
	CleanupWorkspace     = "cleanup_workspace"
	ListGeneratedVideos  = "list_generated_videos"
	ListRenders          = "list_renders"
)

// Definition describes a tool to clients.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the JSON Schema subset used for tool inputs.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one input field.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

var qualityEnum = []string{"low", "medium", "high", "production"}

func str(desc string) Property  { return Property{Type: "string", Description: desc} }
func flag(desc string) Property { return Property{Type: "boolean", Description: desc} }

func object(required []string, props map[string]Property) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

func definitions() []Definition {
	return []Definition{
		{
			Name:        CreateScript,
			Description: "Create and save a Manim script file",
			InputSchema: object([]string{"code"}, map[string]Property{
				"code":        str("The Manim Python code to save"),
				"script_dir":  str("Directory to save the script (optional, uses temp dir if not provided)"),
				"script_name": str("Name of the script file without extension (default: 'scene')"),
				"validate":    flag("Whether to validate the script for security (default: true)"),
			}),
		},
		{
			Name:        ValidateScript,
			Description: "Validate Manim script for security issues",
			InputSchema: object([]string{"code"}, map[string]Property{
				"code": str("The Manim code to validate"),
			}),
		},
		{
			Name:        RenderAnimation,
			Description: "Execute Manim rendering for a script file",
			InputSchema: object([]string{"script_path"}, map[string]Property{
				"script_path": str("Path to the Manim script file"),
				"output_dir":  str("Directory for video output (optional)"),
				"quality": {
					Type:        "string",
					Description: "Render quality (low, medium, high, production)",
					Enum:        qualityEnum,
				},
				"preview": flag("Whether to open preview after rendering (default: true)"),
			}),
		},
		{
			Name:        FindVideos,
			Description: "Find video files in specified directory",
			InputSchema: object([]string{"search_dir"}, map[string]Property{
				"search_dir": str("Directory to search for videos"),
				"pattern":    str("File pattern to match (default: '*.mp4')"),
				"recursive":  flag("Whether to search recursively (default: true)"),
			}),
		},
		{
			Name:        GetWorkspaceInfo,
			Description: "Get information about a workspace directory",
			InputSchema: object([]string{"workspace_path"}, map[string]Property{
				"workspace_path": str("Path to the workspace directory"),
			}),
		},
		{
			Name:        CleanupFiles,
			Description: "Clean up files and directories",
			InputSchema: object([]string{"target_path"}, map[string]Property{
				"target_path": str("Path to file or directory to clean up"),
				"recursive":   flag("Whether to remove directories recursively (default: false)"),
			}),
		},
		{
			Name:        ExecuteManimComplete,
			Description: "Complete Manim workflow: create script, render, and return results",
			InputSchema: object([]string{"code"}, map[string]Property{
				"code":        str("The Manim Python code to execute"),
				"script_dir":  str("Custom directory for script file (optional)"),
				"output_dir":  str("Custom directory for video output (optional)"),
				"script_name": str("Custom script filename without extension (default: 'scene')"),
				"quality": {
					Type:        "string",
					Description: "Render quality (default: 'medium')",
					Enum:        qualityEnum,
				},
			}),
		},
		{
			Name:        ExecuteManim,
			Description: "Execute Manim code and generate animation videos",
			InputSchema: object([]string{"code"}, map[string]Property{
				"code":        str("The Manim Python code to execute"),
				"script_dir":  str("Custom directory for script file (optional)"),
				"output_dir":  str("Custom directory for video output (optional)"),
				"script_name": str("Custom script filename without extension (default: 'scene')"),
			}),
		},
		{
			Name:        CleanupWorkspace,
			Description: "Clean up temporary workspace directory",
			InputSchema: object([]string{"work_dir"}, map[string]Property{
				"work_dir": str("Path to the workspace directory to clean up"),
			}),
		},
		{
			Name:        ListGeneratedVideos,
			Description: "List generated video files",
			InputSchema: object(nil, map[string]Property{
				"search_dir": str("Directory to search for videos (optional, defaults to generated workspaces)"),
			}),
		},
		{
			Name:        ListRenders,
			Description: "List recent render invocations",
			InputSchema: object(nil, map[string]Property{
				"limit": {Type: "integer", Description: "Maximum number of renders to return (default: 10)"},
			}),
		},
	}
}
