package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snowbridge.app/bridge/common/logger"
	"snowbridge.app/bridge/internal/mcp"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// MCPHandler serves the session transport: a long-lived SSE stream per
// client, and a message endpoint that feeds requests to the dispatcher.
type MCPHandler struct {
	server    *mcp.Server
	sessions  *mcp.SessionRegistry
	heartbeat time.Duration
}

func NewMCPHandler(server *mcp.Server, sessions *mcp.SessionRegistry) *MCPHandler {
	return &MCPHandler{
		server:    server,
		sessions:  sessions,
		heartbeat: heartbeatInterval,
	}
}

// Stream opens a session and holds the SSE connection. The first event names
// the message endpoint for this session; afterwards every dispatched response
// is streamed as a message event. The session dies with the connection.
func (h *MCPHandler) Stream(c *gin.Context) {
	session := h.sessions.Open()
	defer h.sessions.Close(session.ID)

	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		SessionID: session.ID,
		Component: "bridge.transport",
	})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: endpoint\ndata: /message?sessionId=%s\n\n", session.ID)
	c.Writer.Flush()

	slog.InfoContext(ctx, "session opened", "live_sessions", h.sessions.Count())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			slog.InfoContext(ctx, "client disconnected")
			return

		case <-session.Done():
			return

		case resp := <-session.Out():
			payload, err := json.Marshal(resp)
			if err != nil {
				slog.ErrorContext(ctx, "encoding response", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

// Message accepts one JSON-RPC request for an open session. The response, if
// any, goes back over the session's stream; the POST itself just acknowledges
// receipt.
func (h *MCPHandler) Message(c *gin.Context) {
	sessionID := c.Query("sessionId")
	session, ok := h.sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired session"})
		return
	}

	var req mcp.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(c.Request.Context(), "unparseable message", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse error: " + err.Error()})
		return
	}

	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		SessionID: session.ID,
		Component: "bridge.transport",
	})

	resp := h.server.Handle(ctx, req)
	if resp != nil {
		if err := session.Send(resp); err != nil {
			slog.WarnContext(ctx, "dropping response", "error", err)
			c.JSON(http.StatusGone, gin.H{"error": "session closed"})
			return
		}
	}

	c.Status(http.StatusAccepted)
}
