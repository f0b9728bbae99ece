package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
)

// WantsStream reports whether the client asked for server-sent events: an
// SSE accept header, the stream query flag, or the Mcp-Stream header.
func WantsStream(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}

	if r.URL.Query().Get("stream") == "true" {
		return true
	}

	return r.Header.Get("Mcp-Stream") != ""
}

// SSEWriter frames JSON payloads as server-sent events and flushes each one
// immediately so progress reaches the client while the poll is still running.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter writes the SSE preamble headers. It fails when the underlying
// writer cannot flush, in which case the caller should fall back to a
// buffered JSON response.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) Send(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sse payload: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}

	s.flusher.Flush()

	return nil
}

// JSONResponse writes a single buffered JSON-RPC response.
func JSONResponse(w http.ResponseWriter, resp *jsonrpc.Response) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("encode response body: %w", err)
	}

	return nil
}

// RPCError answers a transport-level failure with a JSON-RPC error envelope.
func RPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	resp := jsonrpc.NewErrorResponse(id, code, message, nil)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(resp)
}
