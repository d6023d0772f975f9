// Package mcp serves the tool catalogue over the Model Context Protocol:
// newline-delimited JSON-RPC 2.0 on a pair of streams, normally stdio.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/manimcp/internal/log"
	"github.com/mattjoyce/manimcp/internal/tools"
)

// DefaultName is the server name reported during initialization.
const DefaultName = "manim-mcp-server"

// maxMessageBytes bounds a single inbound line. Scripts travel inline.
const maxMessageBytes = 16 << 20

// ToolService is the tool catalogue the server exposes.
type ToolService interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, name string, args tools.Args) tools.Result
}

type Server struct {
	tools  ToolService
	info   ServerInfo
	logger *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

func NewServer(svc ToolService, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{
		tools:  svc,
		info:   ServerInfo{Name: DefaultName, Version: version},
		logger: log.WithComponent("mcp"),
	}
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. Tool calls run concurrently; Serve waits
// for in-flight calls before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := make([]byte, len(line))
			copy(msg, line)
			select {
			case lines <- msg:
			case <-gctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.logger.Info("mcp server started", "protocol_version", ProtocolVersion)

	var serveErr error
loop:
	for {
		select {
		case <-gctx.Done():
			serveErr = gctx.Err()
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			s.handleLine(gctx, g, line)
		}
	}

	if err := g.Wait(); err != nil && serveErr == nil {
		serveErr = err
	}
	select {
	case err := <-readErr:
		if err != nil && serveErr == nil {
			serveErr = fmt.Errorf("read request: %w", err)
		}
	default:
	}

	s.logger.Info("mcp server stopped")
	if errors.Is(serveErr, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return serveErr
}

func (s *Server) handleLine(ctx context.Context, g *errgroup.Group, line []byte) {
	req, rpcErr := DecodeRequest(line)
	if rpcErr != nil {
		s.logger.Warn("rejecting malformed message", "code", rpcErr.Code, "error", rpcErr.Message)
		var id json.RawMessage
		if req != nil {
			id = req.ID
		}
		s.reply(g, &Response{ID: id, Error: rpcErr})
		return
	}

	logger := s.logger.With("method", req.Method)

	switch req.Method {
	case "initialize":
		s.respond(g, req, initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
			ServerInfo:      s.info,
		}, nil)
	case "ping":
		s.respond(g, req, struct{}{}, nil)
	case "tools/list":
		s.respond(g, req, toolsListResult{Tools: s.tools.Definitions()}, nil)
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			s.respond(g, req, nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: tools/call requires a tool name"})
			return
		}
		args, err := tools.DecodeArgs(params.Arguments)
		if err != nil {
			s.respond(g, req, nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)})
			return
		}
		g.Go(func() error {
			res := s.tools.Call(ctx, params.Name, args)
			s.respond(nil, req, callResult{
				Content: []Content{{Type: "text", Text: res.Text}},
				IsError: res.IsError,
			}, nil)
			return nil
		})
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			logger.Debug("notification received")
			return
		}
		logger.Warn("unknown method")
		s.respond(g, req, nil, &RPCError{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method})
	}
}

// respond answers req unless it is a notification.
func (s *Server) respond(g *errgroup.Group, req *Request, result any, rpcErr *RPCError) {
	if req.IsNotification() {
		return
	}
	s.reply(g, &Response{ID: req.ID, Result: result, Error: rpcErr})
}

// reply writes resp. A write failure means the client is gone; it is
// surfaced through g when one is given so Serve stops.
func (s *Server) reply(g *errgroup.Group, resp *Response) {
	s.mu.Lock()
	err := EncodeResponse(s.out, resp)
	s.mu.Unlock()
	if err == nil {
		return
	}
	s.logger.Error("failed to write response", "error", err)
	if g != nil {
		g.Go(func() error { return err })
	}
}
