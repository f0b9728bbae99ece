package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-redis/redis_rate/v10"

	"github.com/navifare/mcp-server/internal/app/config"
	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/app/endpoints"
	"github.com/navifare/mcp-server/internal/pkg/exception"
	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
	httptransport "github.com/navifare/mcp-server/internal/pkg/transport/http"
)

// MakeHTTPRouter builds the HTTP router carrying the MCP endpoint.
func MakeHTTPRouter(
	cfg *config.Config,
	handler *Handler,
	limiter *redis_rate.Limiter,
	logger *slog.Logger,
) *chi.Mux {
	router := chi.NewRouter()

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/mcp", func(router chi.Router) {
		router.Use(
			render.SetContentType(render.ContentTypeJSON),
			httptransport.SessionID(ProtocolVersion),
			httptransport.CORSMiddleware(),
			httptransport.Recoverer(logger),
		)

		if limiter != nil {
			router.Use(httptransport.RateLimit(limiter, cfg.RateLimit.HTTPRPS, logger))
		}

		router.Get("/", serveMetadata)
		router.Post("/", serveMCP(handler, logger))
	})

	return router
}

// serveMetadata describes the endpoint for discovery probes.
func serveMetadata(w http.ResponseWriter, r *http.Request) {
	names := make([]endpoints.ToolName, 0, len(endpoints.Tools()))
	for _, tool := range endpoints.Tools() {
		names = append(names, tool.Name)
	}

	render.JSON(w, r, map[string]interface{}{
		"name":            ServerName,
		"version":         ServerVersion,
		"protocolVersion": ProtocolVersion,
		"transport":       "http",
		"tools":           names,
	})
}

// serveMCP handles one JSON-RPC message per POST. Streaming clients get the
// response as the final SSE frame with progress frames before it; buffered
// clients get a single JSON body and progress is only logged.
func serveMCP(handler *Handler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httptransport.RPCError(w, nil, exception.CodeInvalidRequest, "unreadable request body")

			return
		}

		req, err := decodeRequest(body)
		if err != nil {
			httptransport.RPCError(w, nil, exception.CodeInvalidRequest, "Parse error: invalid JSON")

			return
		}

		ctx := r.Context()
		sessionID := httptransport.SessionIDFromContext(ctx)

		if httptransport.WantsStream(r) {
			sse, sseErr := httptransport.NewSSEWriter(w)
			if sseErr == nil {
				progress := func(event dto.ProgressEvent) {
					if sendErr := sse.Send(ProgressNotification(event)); sendErr != nil {
						logger.WarnContext(ctx, "failed to stream progress",
							slog.String("error", sendErr.Error()))
					}
				}

				resp := handler.HandleMessage(ctx, req, sessionID, progress)
				if resp == nil {
					return
				}

				if sendErr := sse.Send(resp); sendErr != nil {
					logger.WarnContext(ctx, "failed to stream response",
						slog.String("error", sendErr.Error()))
				}

				return
			}

			logger.WarnContext(ctx, "streaming unsupported, falling back to buffered response",
				slog.String("error", sseErr.Error()))
		}

		progress := func(event dto.ProgressEvent) {
			logger.InfoContext(ctx, "search progress",
				slog.Int("result_count", event.ResultCount),
				slog.String("status", event.Status),
			)
		}

		resp := handler.HandleMessage(ctx, req, sessionID, progress)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)

			return
		}

		if encodeErr := httptransport.JSONResponse(w, resp); encodeErr != nil {
			logger.ErrorContext(ctx, "failed to encode response",
				slog.String("error", encodeErr.Error()))
		}
	}
}

func decodeRequest(body []byte) (jsonrpc.Request, error) {
	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonrpc.Request{}, err
	}

	return req, nil
}
