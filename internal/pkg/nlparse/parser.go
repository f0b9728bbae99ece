// Package nlparse turns a natural language flight request into a structured
// itinerary using Gemini.
package nlparse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/navifare/mcp-server/internal/app/config"
	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

const maxAttempts = 3

// ContentGenerator matches *genai.GenerativeModel.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Parser struct {
	model   ContentGenerator
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewParser builds a Gemini-backed parser. The returned client holds open
// connections; the caller owns closing it on shutdown.
func NewParser(ctx context.Context, cfg config.Gemini, logger *slog.Logger) (*Parser, *genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil, exception.ApplicationError{
			Message: "GEMINI_API_KEY not configured",
			RPCCode: exception.CodeInternalError,
		}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	parser := &Parser{
		model:   client.GenerativeModel(cfg.Model),
		timeout: cfg.Timeout,
		logger:  logger,
		now:     time.Now,
	}

	return parser, client, nil
}

// NewParserWithModel wires an existing model, used by tests.
func NewParserWithModel(model ContentGenerator, timeout time.Duration, logger *slog.Logger, now func() time.Time) *Parser {
	return &Parser{
		model:   model,
		timeout: timeout,
		logger:  logger,
		now:     now,
	}
}

// geminiReply is the union of the two JSON shapes the prompt allows: a full
// itinerary or a needs-more-info answer.
type geminiReply struct {
	NeedsMoreInfo bool     `json:"needsMoreInfo"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields"`

	Trip     *dto.Trip `json:"trip"`
	Source   string    `json:"source"`
	Price    string    `json:"price"`
	Currency string    `json:"currency"`
	Location string    `json:"location"`
}

// Parse sends the request to Gemini and post-validates the answer. An
// incomplete itinerary comes back as a needs-more-info response listing the
// missing fields, never as an error.
func (p *Parser) Parse(ctx context.Context, userRequest string) (dto.FormatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.generate(ctx, p.buildPrompt(userRequest))
	if err != nil {
		p.logger.ErrorContext(ctx, "gemini request failed", slog.String("error", err.Error()))

		return fallbackResponse(), nil
	}

	var reply geminiReply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &reply); err != nil {
		p.logger.ErrorContext(ctx, "gemini returned unparseable JSON",
			slog.String("error", err.Error()),
			slog.String("preview", truncate(raw, 200)),
		)

		return fallbackResponse(), nil
	}

	if reply.NeedsMoreInfo {
		return dto.FormatResponse{
			Message:       reply.Message + contextReminder,
			NeedsMoreInfo: true,
			MissingFields: reply.MissingFields,
		}, nil
	}

	missing := missingFields(reply.Trip)
	if len(missing) > 0 {
		return dto.FormatResponse{
			Message:       composeQuestion(missing) + contextReminder,
			NeedsMoreInfo: true,
			MissingFields: missing,
		}, nil
	}

	flightData := &dto.ItineraryRequest{
		Trip:     *reply.Trip,
		Source:   detectSource(userRequest),
		Price:    reply.Price,
		Currency: reply.Currency,
		Location: reply.Location,
	}

	return dto.FormatResponse{
		Message:            "Flight details parsed and formatted successfully! Use the flightData below to call flight_pricecheck.",
		FlightData:         flightData,
		ReadyForPriceCheck: true,
	}, nil
}

func (p *Parser) generate(ctx context.Context, prompt string) (string, error) {
	var text string

	err := retry.Do(
		func() error {
			resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return err
			}

			text = responseText(resp)
			if text == "" {
				return fmt.Errorf("empty gemini response")
			}

			return nil
		},
		retry.Attempts(maxAttempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)

	return text, err
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String()
}

// detectSource flags requests that carry pasted screenshot-extraction output.
func detectSource(userRequest string) string {
	if strings.Contains(userRequest, "extracted") ||
		strings.Contains(userRequest, `{"tripType"`) ||
		strings.Contains(userRequest, "outboundSegments") {
		return "IMAGE_EXTRACTION"
	}

	return "MCP"
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
