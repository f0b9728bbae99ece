// Package transport carries MCP messages over stdio and HTTP. The protocol
// logic lives in Handler; the two transports only differ in framing and in
// how progress reaches the client.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/app/endpoints"
	"github.com/navifare/mcp-server/internal/pkg/exception"
	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
)

const (
	ProtocolVersion = "2025-03-26"
	ServerName      = "navifare-mcp"
	ServerVersion   = "1.0.0"

	widgetURI = "ui://widget/flight-results.html"

	// progress events buffered between the poll loop and the transport
	// writer; overflow is dropped, not blocked on
	progressBuffer = 16
)

// ProgressFunc receives poll progress for an in-flight tools/call. Transports
// turn it into a notifications/message frame; a nil func discards progress.
type ProgressFunc func(event dto.ProgressEvent)

// OfferReader looks up the last stored result snapshot for a session. The
// widget resource renders whatever it returns; a nil reader renders null.
type OfferReader interface {
	Get(ctx context.Context, sessionID string) (dto.SessionResult, error)
}

type Handler struct {
	endpoint endpoints.MCPEndpoint
	offers   OfferReader
	logger   *slog.Logger
}

func NewHandler(endpoint endpoints.MCPEndpoint, offers OfferReader, logger *slog.Logger) *Handler {
	return &Handler{
		endpoint: endpoint,
		offers:   offers,
		logger:   logger,
	}
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      serverInfo             `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolCallResult struct {
	Content []toolContent `json:"content"`
}

// HandleMessage processes one JSON-RPC message. Notifications return nil;
// everything else returns exactly one response. Progress emitted while a
// tools/call is running is delivered through progress before this returns.
func (h *Handler) HandleMessage(ctx context.Context, req jsonrpc.Request,
	sessionID string, progress ProgressFunc,
) *jsonrpc.Response {
	if req.Jsonrpc != jsonrpc.Version {
		return errResponse(req.ID, exception.ApplicationError{
			Message: "invalid jsonrpc version",
			RPCCode: exception.CodeInvalidRequest,
		})
	}

	if req.IsNotification() {
		h.handleNotification(ctx, req)

		return nil
	}

	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, struct{}{})
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{
			"tools": endpoints.Tools(),
		})
	case "tools/call":
		return h.handleToolCall(ctx, req, sessionID, progress)
	case "resources/list":
		return h.handleListResources(req)
	case "resources/read":
		return h.handleReadResource(ctx, req, sessionID)
	default:
		return errResponse(req.ID, exception.ApplicationError{
			Message: fmt.Sprintf("Method not found: %s", req.Method),
			RPCCode: exception.CodeMethodNotFound,
		})
	}
}

func (h *Handler) handleNotification(ctx context.Context, req jsonrpc.Request) {
	switch req.Method {
	case "notifications/initialized", "initialized":
		h.logger.InfoContext(ctx, "client initialized")
	default:
		h.logger.DebugContext(ctx, "ignoring notification", slog.String("method", req.Method))
	}
}

func (h *Handler) handleInitialize(req jsonrpc.Request) *jsonrpc.Response {
	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		ServerInfo: serverInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	})
}

func (h *Handler) handleToolCall(ctx context.Context, req jsonrpc.Request,
	sessionID string, progress ProgressFunc,
) *jsonrpc.Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, exception.ApplicationError{
			Message: "invalid tools/call params",
			RPCCode: exception.CodeInvalidParams,
			Cause:   err,
		})
	}

	call := endpoints.ToolCall{
		Name:      endpoints.ToolName(params.Name),
		Arguments: params.Arguments,
		SessionID: sessionID,
	}

	// flight_pricecheck streams progress while it polls; the forwarder
	// drains until the service closes the channel
	var wg sync.WaitGroup
	if call.Name == endpoints.ToolPriceCheck {
		events := make(chan dto.ProgressEvent, progressBuffer)
		call.Events = events

		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range events {
				if progress != nil {
					progress(event)
				}
			}
		}()
	}

	result, err := h.endpoint.DispatchTool(ctx, call)
	wg.Wait()

	if err != nil {
		return errResponse(req.ID, err)
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResponse(req.ID, fmt.Errorf("encode tool result: %w", err))
	}

	return resultResponse(req.ID, toolCallResult{
		Content: []toolContent{{Type: "text", Text: string(text)}},
	})
}

func (h *Handler) handleListResources(req jsonrpc.Request) *jsonrpc.Response {
	return resultResponse(req.ID, map[string]interface{}{
		"resources": []map[string]interface{}{
			{
				"uri":         widgetURI,
				"name":        "Flight Results Widget",
				"description": "Interactive UI for displaying flight price comparison results",
				"mimeType":    "text/html+skybridge",
			},
		},
	})
}

func (h *Handler) handleReadResource(ctx context.Context, req jsonrpc.Request,
	sessionID string,
) *jsonrpc.Response {
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, exception.ApplicationError{
			Message: "invalid resources/read params",
			RPCCode: exception.CodeInvalidParams,
			Cause:   err,
		})
	}

	if params.URI != widgetURI {
		return errResponse(req.ID, exception.ApplicationError{
			Message: fmt.Sprintf("Resource not found: %s", params.URI),
			RPCCode: exception.CodeInvalidParams,
		})
	}

	return resultResponse(req.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      widgetURI,
				"mimeType": "text/html+skybridge",
				"text":     fmt.Sprintf(widgetHTML, h.snapshotJSON(ctx, sessionID)),
			},
		},
	})
}

// snapshotJSON renders the session's stored results for embedding in the
// widget. Missing, expired or unreadable snapshots all render as null.
func (h *Handler) snapshotJSON(ctx context.Context, sessionID string) string {
	if h.offers == nil || sessionID == "" {
		return "null"
	}

	snapshot, err := h.offers.Get(ctx, sessionID)
	if err != nil {
		return "null"
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "null"
	}

	return string(raw)
}

const widgetHTML = `<div id="flight-results-root"></div>
<script id="flight-results-data" type="application/json">%s</script>
<script type="module" src="/widget/component.js"></script>`

// ProgressNotification renders a poll snapshot as a notifications/message
// frame, the shape MCP clients display as log output.
func ProgressNotification(event dto.ProgressEvent) jsonrpc.Notification {
	plural := "s"
	if event.ResultCount == 1 {
		plural = ""
	}

	status := event.Status
	if status == "" {
		status = dto.StatusInProgress
	}

	return jsonrpc.NewNotification("notifications/message", map[string]interface{}{
		"level":  "info",
		"logger": "navifare",
		"data": map[string]interface{}{
			"message": fmt.Sprintf("Flight search progress: Found %d result%s (status: %s)",
				event.ResultCount, plural, status),
			"results":     event.Snapshot,
			"resultCount": event.ResultCount,
			"status":      status,
		},
	})
}

func resultResponse(id json.RawMessage, result interface{}) *jsonrpc.Response {
	resp := jsonrpc.NewResponse(id, result)

	return &resp
}

func errResponse(id json.RawMessage, err error) *jsonrpc.Response {
	message := err.Error()

	var appErr exception.ApplicationError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	resp := jsonrpc.NewErrorResponse(id, exception.RPCCodeOf(err), message, nil)

	return &resp
}
