package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		os.Exit(runServe(nil))
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "doctor":
		os.Exit(runDoctor(args))
	case "workspace":
		os.Exit(runWorkspaceNoun(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("manimcp version %s\n", buildVersion())
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`manimcp - MCP server for rendering Manim animations

Usage:
  manimcp [command] [flags]

Commands:
  serve                 Serve tools over MCP on stdin/stdout (default)
  doctor                Check configuration, renderer and directories
  workspace info [dir]  Show generated workspaces, or statistics for dir
  workspace prune       Remove generated workspaces older than --older-than
  watch                 Follow a running server's events (needs api.enabled)
  version               Show version information
  help                  Show this help message

Common flags:
  --config PATH         Config file (default: $MANIMCP_CONFIG,
                        ~/.config/manimcp/manimcp.yaml, ./manimcp.yaml)

Environment:
  MANIM_EXECUTABLE      Renderer executable (overrides render.executable)
`)
}

// buildVersion prefers the module version stamped by `go install`.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return version
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if isHelpToken(arg) {
			return true
		}
	}
	return false
}
