package api

import (
	"github.com/mattjoyce/manimcp/internal/history"
	"github.com/mattjoyce/manimcp/internal/tools"
)

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	ToolsLoaded      int    `json:"tools_loaded"`
	HistoryEnabled   bool   `json:"history_enabled"`
	EventSubscribers int    `json:"event_subscribers"`
}

// ToolsResponse is returned by GET /tools.
type ToolsResponse struct {
	Tools []tools.Definition `json:"tools"`
}

// RendersResponse is returned by GET /renders.
type RendersResponse struct {
	Renders []history.Record `json:"renders"`
}
