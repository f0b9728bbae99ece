package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
	"github.com/navifare/mcp-server/internal/pkg/logger"
)

const readChunkSize = 64 * 1024

// StdioServer speaks line-delimited JSON-RPC on stdin/stdout. Responses and
// progress notifications share one writer guarded by a mutex so concurrent
// writes never interleave inside a line. All log output goes to stderr;
// stdout carries protocol frames only.
type StdioServer struct {
	handler   *Handler
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
	limiter   *rate.Limiter
	sessionID string

	writeMu sync.Mutex
}

func NewStdioServer(handler *Handler, in io.Reader, out io.Writer,
	toolCallRPS int, logger *slog.Logger,
) *StdioServer {
	var limiter *rate.Limiter
	if toolCallRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(toolCallRPS), toolCallRPS)
	}

	return &StdioServer{
		handler:   handler,
		in:        in,
		out:       out,
		logger:    logger,
		limiter:   limiter,
		sessionID: uuid.New().String(),
	}
}

// Run reads frames until stdin closes or the context is cancelled. Chunks
// are accumulated through the line framer, so a message split across reads
// or several messages arriving in one read both come out as whole lines.
//
// Each message is handled on its own goroutine, so a ping or a second call
// is answered while a long flight_pricecheck poll is still running. The
// write mutex keeps their output frames from interleaving. On EOF Run waits
// for in-flight handlers before returning so no response is lost.
func (s *StdioServer) Run(ctx context.Context) error {
	ctx = logger.WithSessionID(ctx, s.sessionID)

	lines := make(chan string)
	readErr := make(chan error, 1)

	go s.readLoop(ctx, lines, readErr)

	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-lines:
			handlers.Add(1)

			go func(line string) {
				defer handlers.Done()
				s.handleLine(ctx, line)
			}(line)
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				s.logger.InfoContext(ctx, "stdin closed, shutting down")

				return nil
			}

			return fmt.Errorf("read stdin: %w", err)
		}
	}
}

// readLoop feeds complete lines to Run. lines is unbuffered and the read
// error is only sent after every line, so Run never sees the error while
// messages are still queued.
func (s *StdioServer) readLoop(ctx context.Context, lines chan<- string, readErr chan<- error) {
	var framer jsonrpc.LineFramer

	buf := make([]byte, readChunkSize)

	for {
		n, err := s.in.Read(buf)
		if n > 0 {
			for _, line := range framer.Append(buf[:n]) {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			readErr <- err

			return
		}
	}
}

func (s *StdioServer) handleLine(ctx context.Context, line string) {
	var req jsonrpc.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.logger.WarnContext(ctx, "dropping unparseable frame",
			slog.String("error", err.Error()))
		s.writeResponse(ctx, jsonrpc.NewErrorResponse(nil,
			exception.CodeInvalidRequest, "Parse error: invalid JSON", nil))

		return
	}

	if req.Method == "tools/call" && s.limiter != nil && !s.limiter.Allow() {
		if !req.IsNotification() {
			s.writeResponse(ctx, jsonrpc.NewErrorResponse(req.ID,
				exception.CodeInternalError, "Rate limit exceeded, slow down", nil))
		}

		return
	}

	progress := func(event dto.ProgressEvent) {
		s.writeNotification(ctx, ProgressNotification(event))
	}

	resp := s.handler.HandleMessage(ctx, req, s.sessionID, progress)
	if resp == nil {
		return
	}

	s.writeResponse(ctx, *resp)
}

func (s *StdioServer) writeResponse(ctx context.Context, resp jsonrpc.Response) {
	s.writeFrame(ctx, resp)
}

func (s *StdioServer) writeNotification(ctx context.Context, notif jsonrpc.Notification) {
	s.writeFrame(ctx, notif)
}

func (s *StdioServer) writeFrame(ctx context.Context, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode frame", slog.String("error", err.Error()))

		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := fmt.Fprintf(s.out, "%s\n", data); err != nil {
		s.logger.ErrorContext(ctx, "failed to write frame", slog.String("error", err.Error()))
	}
}
