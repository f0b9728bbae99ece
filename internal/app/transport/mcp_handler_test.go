//go:build unit

package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/app/endpoints"
	"github.com/navifare/mcp-server/internal/pkg/exception"
	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
)

type fakePriceCheckService struct {
	resp     dto.PriceCheckResponse
	err      error
	emit     []dto.ProgressEvent
	gotSess  string
	submitID string
	fetched  dto.SessionResult
}

func (f *fakePriceCheckService) PriceCheck(_ context.Context, sessionID string,
	_ dto.PriceCheckArgs, events chan<- dto.ProgressEvent,
) (dto.PriceCheckResponse, error) {
	f.gotSess = sessionID

	if events != nil {
		for _, event := range f.emit {
			events <- event
		}
		close(events)
	}

	return f.resp, f.err
}

func (f *fakePriceCheckService) Submit(_ context.Context, _ dto.PriceCheckArgs) (string, error) {
	return f.submitID, f.err
}

func (f *fakePriceCheckService) Fetch(_ context.Context, _, _ string) (dto.SessionResult, error) {
	return f.fetched, f.err
}

type fakeFormatService struct {
	resp dto.FormatResponse
	err  error
}

func (f *fakeFormatService) Format(_ context.Context, _ dto.FormatRequest) (dto.FormatResponse, error) {
	return f.resp, f.err
}

type fakeOfferReader struct {
	snapshot dto.SessionResult
	err      error
	gotSess  string
}

func (f *fakeOfferReader) Get(_ context.Context, sessionID string) (dto.SessionResult, error) {
	f.gotSess = sessionID

	return f.snapshot, f.err
}

func newTestHandler(priceCheck *fakePriceCheckService, format *fakeFormatService) *Handler {
	if priceCheck == nil {
		priceCheck = &fakePriceCheckService{}
	}
	if format == nil {
		format = &fakeFormatService{}
	}

	return NewHandler(endpoints.MakeMCPEndpoint(priceCheck, format), nil, slog.Default())
}

func request(id int, method string, params string) jsonrpc.Request {
	req := jsonrpc.Request{
		Jsonrpc: jsonrpc.Version,
		ID:      json.RawMessage(jsonNumber(id)),
		Method:  method,
	}
	if params != "" {
		req.Params = json.RawMessage(params)
	}

	return req
}

func jsonNumber(id int) string {
	data, _ := json.Marshal(id)

	return string(data)
}

// toolText unpacks the text content of a successful tools/call response.
func toolText(t *testing.T, resp *jsonrpc.Response) string {
	t.Helper()

	result, ok := resp.Result.(toolCallResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}

	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected content shape: %+v", result.Content)
	}

	return result.Content[0].Text
}

func TestHandler_HandleMessage(t *testing.T) {
	t.Run("initialize", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(), request(1, "initialize", ""), "sess", nil)

		assert.NotNil(t, resp)
		assert.Nil(t, resp.Error)

		result, ok := resp.Result.(initializeResult)
		assert.True(t, ok)
		assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
		assert.Equal(t, ServerName, result.ServerInfo.Name)
	})

	t.Run("unknown_method", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(), request(2, "prompts/list", ""), "sess", nil)

		assert.NotNil(t, resp.Error)
		assert.Equal(t, exception.CodeMethodNotFound, resp.Error.Code)
	})

	t.Run("notification_returns_nil", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(), jsonrpc.Request{
			Jsonrpc: jsonrpc.Version,
			Method:  "notifications/initialized",
		}, "sess", nil)

		assert.Nil(t, resp)
	})

	t.Run("wrong_version_rejected", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(), jsonrpc.Request{
			Jsonrpc: "1.0",
			ID:      json.RawMessage("1"),
			Method:  "initialize",
		}, "sess", nil)

		assert.NotNil(t, resp.Error)
		assert.Equal(t, exception.CodeInvalidRequest, resp.Error.Code)
	})

	t.Run("tools_list", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(), request(3, "tools/list", ""), "sess", nil)

		assert.Nil(t, resp.Error)

		result := resp.Result.(map[string]interface{})
		tools := result["tools"].([]endpoints.ToolDescriptor)
		assert.Len(t, tools, 4)
		assert.Equal(t, endpoints.ToolPriceCheck, tools[0].Name)
	})

	t.Run("unknown_tool", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(),
			request(4, "tools/call", `{"name":"teleport","arguments":{}}`), "sess", nil)

		assert.NotNil(t, resp.Error)
		assert.Equal(t, exception.CodeMethodNotFound, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "Unknown tool")
	})

	t.Run("pricecheck_streams_progress_then_result", func(t *testing.T) {
		svc := &fakePriceCheckService{
			resp: dto.PriceCheckResponse{Message: "Flight price search completed! Found 1 result(s):", Status: dto.StatusCompleted},
			emit: []dto.ProgressEvent{
				{ResultCount: 1, Status: dto.StatusInProgress},
			},
		}
		h := newTestHandler(svc, nil)

		var events []dto.ProgressEvent
		progress := func(event dto.ProgressEvent) { events = append(events, event) }

		resp := h.HandleMessage(context.Background(),
			request(5, "tools/call", `{"name":"flight_pricecheck","arguments":{}}`), "sess-42", progress)

		assert.Nil(t, resp.Error)
		assert.Equal(t, "sess-42", svc.gotSess)
		assert.Len(t, events, 1)
		assert.Equal(t, 1, events[0].ResultCount)
		assert.Contains(t, toolText(t, resp), "Flight price search completed!")
	})

	t.Run("pricecheck_failure_is_tool_result_not_rpc_error", func(t *testing.T) {
		svc := &fakePriceCheckService{
			err: exception.ApplicationError{
				Message: "one-way trips are not yet supported",
				RPCCode: exception.CodeInvalidParams,
			},
		}
		h := newTestHandler(svc, nil)

		resp := h.HandleMessage(context.Background(),
			request(6, "tools/call", `{"name":"flight_pricecheck","arguments":{}}`), "sess", nil)

		assert.Nil(t, resp.Error)

		text := toolText(t, resp)
		assert.Contains(t, text, "Flight search failed: one-way trips are not yet supported")
	})

	t.Run("format_tool", func(t *testing.T) {
		h := newTestHandler(nil, &fakeFormatService{
			resp: dto.FormatResponse{NeedsMoreInfo: true, Message: "need dates"},
		})

		resp := h.HandleMessage(context.Background(),
			request(7, "tools/call", `{"name":"format_flight_pricecheck_request","arguments":{"user_request":"fly me to the moon"}}`),
			"sess", nil)

		assert.Nil(t, resp.Error)
		assert.Contains(t, toolText(t, resp), "need dates")
	})

	t.Run("invalid_tool_arguments", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		resp := h.HandleMessage(context.Background(),
			request(8, "tools/call", `{"name":"flight_pricecheck","arguments":"not-an-object"}`), "sess", nil)

		assert.NotNil(t, resp.Error)
		assert.Equal(t, exception.CodeInvalidParams, resp.Error.Code)
	})

	t.Run("resources_roundtrip", func(t *testing.T) {
		h := newTestHandler(nil, nil)

		listResp := h.HandleMessage(context.Background(), request(9, "resources/list", ""), "sess", nil)
		assert.Nil(t, listResp.Error)

		readResp := h.HandleMessage(context.Background(),
			request(10, "resources/read", `{"uri":"ui://widget/flight-results.html"}`), "sess", nil)
		assert.Nil(t, readResp.Error)
		assert.Contains(t, resourceText(t, readResp), `type="application/json">null<`)

		missingResp := h.HandleMessage(context.Background(),
			request(11, "resources/read", `{"uri":"ui://widget/unknown.html"}`), "sess", nil)
		assert.NotNil(t, missingResp.Error)
		assert.Equal(t, exception.CodeInvalidParams, missingResp.Error.Code)
	})

	t.Run("widget_embeds_session_snapshot", func(t *testing.T) {
		offers := &fakeOfferReader{
			snapshot: dto.SessionResult{
				RequestID:    "req-7",
				Status:       dto.StatusCompleted,
				TotalResults: 1,
				Results: []dto.Offer{
					{Rank: 1, Website: "kiwi.com", Price: "84.00 EUR", FareType: dto.FareTypeStandard},
				},
			},
		}
		h := NewHandler(endpoints.MakeMCPEndpoint(&fakePriceCheckService{}, &fakeFormatService{}),
			offers, slog.Default())

		resp := h.HandleMessage(context.Background(),
			request(12, "resources/read", `{"uri":"ui://widget/flight-results.html"}`), "sess-7", nil)

		assert.Nil(t, resp.Error)
		assert.Equal(t, "sess-7", offers.gotSess)

		text := resourceText(t, resp)
		assert.Contains(t, text, `"request_id":"req-7"`)
		assert.Contains(t, text, "kiwi.com")
	})
}

// resourceText unpacks the text content of a resources/read response.
func resourceText(t *testing.T, resp *jsonrpc.Response) string {
	t.Helper()

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}

	contents, ok := result["contents"].([]map[string]interface{})
	if !ok || len(contents) != 1 {
		t.Fatalf("unexpected contents shape: %+v", result["contents"])
	}

	text, _ := contents[0]["text"].(string)

	return text
}
