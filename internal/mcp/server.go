package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"snowbridge.app/bridge/common/logger"
	"snowbridge.app/bridge/internal/tools"
)

// ServerInfo identifies the bridge during initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server dispatches JSON-RPC requests to the tool registry. It is stateless;
// one instance serves every session concurrently.
type Server struct {
	registry *tools.Registry
	info     ServerInfo
}

func NewServer(registry *tools.Registry, info ServerInfo) *Server {
	return &Server{registry: registry, info: info}
}

// Handle processes one request and returns the response to push onto the
// session stream, or nil for notifications.
func (s *Server) Handle(ctx context.Context, req Request) *Response {
	switch req.Method {
	case "initialize":
		return newResponse(req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      s.info,
		})

	case "notifications/initialized":
		return nil

	case "ping":
		return newResponse(req.ID, map[string]any{})

	case "tools/list":
		return newResponse(req.ID, map[string]any{"tools": s.registry.List()})

	case "tools/call":
		return s.handleCall(ctx, req)

	default:
		if req.IsNotification() {
			slog.DebugContext(ctx, "ignoring unknown notification", "method", req.Method)
			return nil
		}
		return newErrorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (s *Server) handleCall(ctx context.Context, req Request) *Response {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return newErrorResponse(req.ID, CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}
	if params.Name == "" {
		return newErrorResponse(req.ID, CodeInvalidParams, "tool name is required")
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Tool: params.Name})
	sc := logger.StartSpan(ctx, "tools."+params.Name)
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	result, err := s.registry.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		// Tool failures ride back as error results, not protocol errors, so
		// the client can show them to the user.
		sc.RecordError(err)
		slog.WarnContext(ctx, "tool call failed",
			"error", err,
			"args", logger.Truncate(string(params.Arguments), 256),
			"latency_ms", time.Since(start).Milliseconds())
		return newResponse(req.ID, CallResult{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return newErrorResponse(req.ID, CodeInternalError, "encoding tool result: "+err.Error())
	}

	slog.InfoContext(ctx, "tool call completed",
		"latency_ms", time.Since(start).Milliseconds())

	return newResponse(req.ID, CallResult{
		Content: []Content{{Type: "text", Text: string(payload)}},
	})
}
