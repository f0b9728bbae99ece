package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/cors"
	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"

	"github.com/navifare/mcp-server/internal/pkg/logger"
)

const (
	SessionIDHeader       = "Mcp-Session-Id"
	ProtocolVersionHeader = "MCP-Protocol-Version"
)

type MiddlewareFunc func(http.Handler) http.Handler

func Recoverer(logger *slog.Logger) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if err, _ := rvr.(error); errors.Is(err, http.ErrAbortHandler) {
						// we don't recover http.ErrAbortHandler so the response
						// to the client is aborted, this should not be logged
						panic(rvr)
					}

					logger.ErrorContext(req.Context(), "panic occurred",
						slog.Any("message", rvr),
						slog.String("stack_trace", string(debug.Stack())))
					respWriter.WriteHeader(http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}

// CORSMiddleware set CORS related headers. The session header must be both
// accepted and exposed or browser clients lose their session binding.
func CORSMiddleware() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization", "Origin", "Content-Type", "Accept",
			SessionIDHeader, ProtocolVersionHeader, "Mcp-Stream",
		},
		ExposedHeaders: []string{SessionIDHeader, ProtocolVersionHeader},
	})
}

// SessionID binds every request to an MCP session: the client's session
// header is echoed back, a missing one gets a fresh uuid. The id also lands
// in the context so log lines carry it.
func SessionID(protocolVersion string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(SessionIDHeader)
			if sessionID == "" {
				sessionID = uuid.New().String()
			}

			ctx := logger.WithSessionID(r.Context(), sessionID)
			w.Header().Set(SessionIDHeader, sessionID)
			w.Header().Set(ProtocolVersionHeader, protocolVersion)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session bound by the SessionID middleware.
func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(logger.SessionIDKey).(string)

	return sessionID
}

// RateLimit rejects clients that exceed rps requests per second, keyed by
// remote IP. A limiter backend failure lets the request through; dropping
// traffic because redis blinked is worse than briefly not limiting.
func RateLimit(limiter *redis_rate.Limiter, rps int, logger *slog.Logger) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			res, err := limiter.Allow(r.Context(), "mcp:ratelimit:"+ip, redis_rate.PerSecond(rps))
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable",
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)

				return
			}

			if res.Allowed == 0 {
				w.WriteHeader(http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
