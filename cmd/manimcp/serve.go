package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/manimcp/internal/api"
	"github.com/mattjoyce/manimcp/internal/auth"
	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/mcp"
)

func runServe(args []string) int {
	if hasHelpFlag(args) {
		fmt.Println("Usage: manimcp serve [--config PATH] [--api] [--listen ADDR] [--no-stdio]")
		return 0
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	enableAPI := fs.Bool("api", false, "Enable the HTTP API regardless of config")
	listen := fs.String("listen", "", "HTTP API listen address (overrides api.listen)")
	noStdio := fs.Bool("no-stdio", false, "Do not serve MCP on stdin/stdout; run the HTTP API only")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *enableAPI {
		cfg.API.Enabled = true
	}
	if *listen != "" {
		cfg.API.Listen = *listen
	}
	if cfg.API.Enabled && cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
		fmt.Fprintln(os.Stderr, "The HTTP API needs api.auth.api_key or api.auth.tokens")
		return 1
	}
	if *noStdio && !cfg.API.Enabled {
		fmt.Fprintln(os.Stderr, "--no-stdio requires the HTTP API (--api or api.enabled)")
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var in io.Reader = os.Stdin
	if *noStdio {
		in = nil
	}
	if err := serve(ctx, cfg, in, os.Stdout); err != nil {
		log.WithComponent("main").Error("server stopped with error", "error", err)
		return 1
	}
	return 0
}

// serve runs the MCP loop on in/out (when in is non-nil) and the HTTP API
// (when enabled) until ctx ends or the MCP input is exhausted.
func serve(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger := log.WithComponent("main")
	logger.Info("manimcp starting",
		"version", buildVersion(),
		"config", cfg.SourcePath,
		"renderer", cfg.Render.Executable,
	)

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger.Info("workspace ready", "base_dir", rt.ws.BaseDir(), "history", cfg.History.Path)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if in != nil {
		g.Go(func() error {
			// Closing stdin is how MCP clients stop a server.
			defer cancel()
			return mcp.NewServer(rt.tools, buildVersion()).Serve(gctx, in, out)
		})
	}

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{Token: t.Token, Scopes: t.Scopes})
		}
		apiServer := api.New(api.Config{
			Listen:      cfg.API.Listen,
			APIKey:      cfg.API.Auth.APIKey,
			Tokens:      tokens,
			CORSOrigins: cfg.API.CORSOrigins,
		}, rt.tools, rt.history, rt.hub, log.WithComponent("api"))
		g.Go(func() error {
			if err := apiServer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("api: %w", err)
			}
			return nil
		})
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	err = g.Wait()
	logger.Info("manimcp stopped")
	return err
}
