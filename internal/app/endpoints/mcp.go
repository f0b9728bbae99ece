// Package endpoints binds MCP tool names to service calls. Dispatch is a
// closed enum: every tool the server advertises has an endpoint here and
// anything else is a method-not-found error, regardless of transport.
package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-kit/kit/endpoint"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

type ToolName string

const (
	ToolPriceCheck    ToolName = "flight_pricecheck"
	ToolFormatRequest ToolName = "format_flight_pricecheck_request"
	ToolSubmitSession ToolName = "submit_session"
	ToolGetResults    ToolName = "get_session_results"
)

type PriceCheckService interface {
	PriceCheck(ctx context.Context, sessionID string, args dto.PriceCheckArgs,
		events chan<- dto.ProgressEvent) (dto.PriceCheckResponse, error)
	Submit(ctx context.Context, args dto.PriceCheckArgs) (string, error)
	Fetch(ctx context.Context, sessionID, requestID string) (dto.SessionResult, error)
}

type FormatService interface {
	Format(ctx context.Context, req dto.FormatRequest) (dto.FormatResponse, error)
}

// ToolCall is one tools/call invocation as seen by a transport.
type ToolCall struct {
	Name      ToolName
	Arguments json.RawMessage
	SessionID string
	Events    chan<- dto.ProgressEvent
}

type MCPEndpoint struct {
	PriceCheck endpoint.Endpoint
	Format     endpoint.Endpoint
	Submit     endpoint.Endpoint
	Fetch      endpoint.Endpoint
}

func MakeMCPEndpoint(priceCheck PriceCheckService, format FormatService) MCPEndpoint {
	return MCPEndpoint{
		PriceCheck: makePriceCheckEndpoint(priceCheck),
		Format:     makeFormatEndpoint(format),
		Submit:     makeSubmitEndpoint(priceCheck),
		Fetch:      makeFetchEndpoint(priceCheck),
	}
}

// DispatchTool decodes the arguments for a named tool and routes the call.
// Search failures in flight_pricecheck are folded into the tool result so
// chat clients can relay them; only unknown tools and undecodable arguments
// surface as protocol errors.
func (e MCPEndpoint) DispatchTool(ctx context.Context, call ToolCall) (interface{}, error) {
	switch call.Name {
	case ToolPriceCheck:
		var args dto.PriceCheckArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			drainAndClose(call.Events)

			return nil, err
		}

		result, err := e.PriceCheck(ctx, priceCheckRequest{
			SessionID: call.SessionID,
			Args:      args,
			Events:    call.Events,
		})
		if err != nil {
			return dto.PriceCheckResponse{
				Message: fmt.Sprintf("Flight search failed: %s", errorMessage(err)),
				Error:   errorMessage(err),
			}, nil
		}

		return result, nil

	case ToolFormatRequest:
		var req dto.FormatRequest
		if err := decodeArgs(call.Arguments, &req); err != nil {
			return nil, err
		}

		return e.Format(ctx, &req)

	case ToolSubmitSession:
		var args dto.PriceCheckArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}

		return e.Submit(ctx, &args)

	case ToolGetResults:
		var req dto.FetchRequest
		if err := decodeArgs(call.Arguments, &req); err != nil {
			return nil, err
		}

		return e.Fetch(ctx, fetchRequest{SessionID: call.SessionID, RequestID: req.RequestID})

	default:
		drainAndClose(call.Events)

		return nil, exception.ApplicationError{
			Message: fmt.Sprintf("Unknown tool: %s", call.Name),
			RPCCode: exception.CodeMethodNotFound,
		}
	}
}

type priceCheckRequest struct {
	SessionID string
	Args      dto.PriceCheckArgs
	Events    chan<- dto.ProgressEvent
}

type fetchRequest struct {
	SessionID string
	RequestID string
}

func makePriceCheckEndpoint(service PriceCheckService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(priceCheckRequest)
		if !ok {
			return nil, errors.New("invalid type")
		}

		return service.PriceCheck(ctx, request.SessionID, request.Args, request.Events)
	}
}

func makeFormatEndpoint(service FormatService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.FormatRequest)
		if !ok || request == nil {
			return nil, errors.New("invalid type")
		}

		return service.Format(ctx, *request)
	}
}

func makeSubmitEndpoint(service PriceCheckService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.PriceCheckArgs)
		if !ok || request == nil {
			return nil, errors.New("invalid type")
		}

		requestID, err := service.Submit(ctx, *request)
		if err != nil {
			return nil, err
		}

		return map[string]string{
			"request_id": requestID,
			"message":    "Session submitted. Poll get_session_results with this request_id.",
		}, nil
	}
}

func makeFetchEndpoint(service PriceCheckService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(fetchRequest)
		if !ok {
			return nil, errors.New("invalid type")
		}

		return service.Fetch(ctx, request.SessionID, request.RequestID)
	}
}

func decodeArgs(raw json.RawMessage, target interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return exception.ApplicationError{
			Message: "invalid tool arguments: " + err.Error(),
			RPCCode: exception.CodeInvalidParams,
			Cause:   err,
		}
	}

	return nil
}

// drainAndClose releases a progress channel on paths that never reach the
// service layer, which otherwise owns closing it.
func drainAndClose(events chan<- dto.ProgressEvent) {
	if events != nil {
		close(events)
	}
}

func errorMessage(err error) string {
	var appErr exception.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	return err.Error()
}
