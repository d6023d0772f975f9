package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/inspect"
	"github.com/mattjoyce/manimcp/internal/workspace"
)

func runWorkspaceNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: manimcp workspace <info|prune> [flags]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "info":
		return runWorkspaceInfo(args[1:])
	case "prune":
		return runWorkspacePrune(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown workspace action: %s\n", args[0])
		return 1
	}
}

func openWorkspaces(configPath string) (workspace.Manager, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	ws, err := workspace.NewFSManager(cfg.Workspace.BaseDir, cfg.Workspace.Prefix)
	if err != nil {
		return nil, fmt.Errorf("workspace base directory: %w", err)
	}
	return ws, nil
}

func runWorkspaceInfo(args []string) int {
	fs := flag.NewFlagSet("workspace info", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() > 0 {
		stats, err := inspect.Inspect(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting workspace info: %v\n", err)
			return 1
		}
		fmt.Println(stats.Report())
		return 0
	}

	ws, err := openWorkspaces(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	list, err := ws.List(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list workspaces: %v\n", err)
		return 1
	}

	fmt.Printf("Base directory: %s\n", ws.BaseDir())
	if len(list) == 0 {
		fmt.Println("No generated workspaces.")
		return 0
	}
	fmt.Printf("Generated workspaces (%d):\n", len(list))
	for _, w := range list {
		stats, err := inspect.Inspect(w.Dir)
		if err != nil {
			fmt.Printf("  %s  (unreadable: %v)\n", filepath.Base(w.Dir), err)
			continue
		}
		fmt.Printf("  %s  scripts=%d videos=%d size=%.2f MB\n",
			filepath.Base(w.Dir), stats.ScriptCount, stats.VideoCount, float64(stats.TotalBytes)/1024/1024)
	}
	return 0
}

func runWorkspacePrune(args []string) int {
	fs := flag.NewFlagSet("workspace prune", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	olderThan := fs.Duration("older-than", 24*time.Hour, "Remove generated workspaces not modified within this duration")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *olderThan <= 0 {
		fmt.Fprintln(os.Stderr, "--older-than must be positive")
		return 1
	}

	ws, err := openWorkspaces(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	report, err := ws.Prune(context.Background(), *olderThan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
		return 1
	}
	fmt.Printf("Pruned %d workspace(s), kept %d.\n", report.DeletedDirs, report.Kept)
	return 0
}
