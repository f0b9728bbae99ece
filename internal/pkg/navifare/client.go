// Package navifare is the client for the remote price-discovery backend. It
// owns the backend's request/response JSON shapes; submit-then-poll
// sequencing lives in the poller package.
package navifare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/navifare/mcp-server/internal/app/config"
	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Navifare) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func backendError(message string, cause error) error {
	return exception.ApplicationError{
		Message: message,
		RPCCode: exception.CodeInternalError,
		Cause:   cause,
	}
}

// Submit creates a price-discovery session for a normalized itinerary and
// returns the backend-assigned request id. Transport failures, non-success
// statuses and error payloads embedded in a 200 body all surface as one
// error; nothing here is retried.
func (c *Client) Submit(ctx context.Context, req dto.ItineraryRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", backendError("encode session request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return "", backendError("build session request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", backendError("navifare api unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", backendError(fmt.Sprintf("navifare api error %d: unreadable response body", resp.StatusCode), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", backendError(submitFailureMessage(resp.StatusCode, raw), nil)
	}

	var submitResp submitResponse
	if err := json.Unmarshal(raw, &submitResp); err != nil {
		return "", backendError(fmt.Sprintf("navifare api returned invalid JSON (status %d): %s",
			resp.StatusCode, truncate(string(raw), 200)), err)
	}

	if submitResp.isError() {
		code := submitResp.Code.String()
		if code == "" {
			code = fmt.Sprint(resp.StatusCode)
		}
		return "", backendError(fmt.Sprintf("navifare api error %s: %s", code, submitResp.Message), nil)
	}

	if submitResp.RequestID == "" {
		return "", backendError("navifare api returned no request_id", nil)
	}

	return submitResp.RequestID, nil
}

// FetchResults reads one snapshot of a session. Failures here are per-cycle:
// the caller logs them and re-polls on the next tick.
func (c *Client) FetchResults(ctx context.Context, requestID string) (dto.SessionResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/session/%s", c.baseURL, requestID), nil)
	if err != nil {
		return dto.SessionResult{}, backendError("build session fetch", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return dto.SessionResult{}, backendError("navifare api unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dto.SessionResult{}, backendError("unreadable session body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dto.SessionResult{}, backendError(fmt.Sprintf("navifare api error %d: %s",
			resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	var sessionResp sessionResponse
	if err := json.Unmarshal(raw, &sessionResp); err != nil {
		return dto.SessionResult{}, backendError("navifare api returned invalid session JSON", err)
	}

	return mapSession(requestID, sessionResp), nil
}

// mapSession converts the backend's result records into ranked offers. Rank
// is positional; the backend returns results already ordered by price.
func mapSession(requestID string, resp sessionResponse) dto.SessionResult {
	result := dto.SessionResult{
		RequestID:    requestID,
		Status:       resp.Status,
		TotalResults: len(resp.Results),
		Results:      make([]dto.Offer, 0, len(resp.Results)),
	}
	if resp.RequestID != "" {
		result.RequestID = resp.RequestID
	}

	for i, rec := range resp.Results {
		fareType := dto.FareTypeStandard
		if bool(rec.PrivateFare) {
			fareType = dto.FareTypeSpecial
		}

		result.Results = append(result.Results, dto.Offer{
			Rank:       i + 1,
			Price:      fmt.Sprintf("%s %s", rec.Price.String(), rec.Currency),
			Website:    rec.website(),
			BookingURL: rec.bookingURL(),
			FareType:   fareType,
			Timestamp:  rec.Timestamp,
		})
	}

	return result
}

func submitFailureMessage(status int, raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return fmt.Sprintf("navifare api error %d: (empty response body)", status)
	}

	var embedded errorBody
	if err := json.Unmarshal(raw, &embedded); err == nil && embedded.isError() && embedded.Message != "" {
		return fmt.Sprintf("navifare api error %d: %s", status, embedded.Message)
	}

	return fmt.Sprintf("navifare api error %d: %s", status, truncate(body, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
