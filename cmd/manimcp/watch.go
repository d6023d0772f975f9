package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/tui/watch"
)

// apiKeyEnv supplies the watch bearer token when --api-key is not given.
const apiKeyEnv = "MANIMCP_API_KEY"

func runWatch(args []string) int {
	if hasHelpFlag(args) {
		fmt.Println("Usage: manimcp watch [--config PATH] [--url URL] [--api-key KEY]")
		return 0
	}

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	apiURL := fs.String("url", "", "Server base URL (default: http://<api.listen>)")
	apiKey := fs.String("api-key", "", "Bearer token with events:ro scope (default: $"+apiKeyEnv+" or api.auth.api_key)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	url, key, err := watchTarget(*configPath, *apiURL, *apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := tea.NewProgram(watch.New(ctx, url, key), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		return 1
	}
	return 0
}

// watchTarget fills the URL and key from config and environment when the
// flags leave them empty.
func watchTarget(configPath, url, key string) (string, string, error) {
	if key == "" {
		key = os.Getenv(apiKeyEnv)
	}
	if url == "" || key == "" {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return "", "", fmt.Errorf("failed to load config: %w", err)
		}
		if url == "" {
			url = "http://" + cfg.API.Listen
		}
		if key == "" {
			key = cfg.API.Auth.APIKey
		}
	}
	if key == "" {
		return "", "", fmt.Errorf("no API key: pass --api-key, set %s, or configure api.auth.api_key", apiKeyEnv)
	}
	return strings.TrimRight(url, "/"), key, nil
}
