package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/itinerary"
	"github.com/navifare/mcp-server/internal/pkg/offerstore"
)

type SessionClient interface {
	Submit(ctx context.Context, req dto.ItineraryRequest) (string, error)
	FetchResults(ctx context.Context, requestID string) (dto.SessionResult, error)
}

type SessionPoller interface {
	Run(ctx context.Context, requestID string, budget time.Duration,
		events chan<- dto.ProgressEvent) (dto.SessionResult, error)
}

type OfferStorer interface {
	Put(ctx context.Context, sessionID string, result dto.SessionResult) error
	Get(ctx context.Context, sessionID string) (dto.SessionResult, error)
}

type PriceCheckService struct {
	client SessionClient
	poller SessionPoller
	store  OfferStorer
	budget time.Duration
	now    func() time.Time
}

func NewPriceCheckService(client SessionClient, poller SessionPoller,
	store OfferStorer, budget time.Duration) *PriceCheckService {
	return &PriceCheckService{
		client: client,
		poller: poller,
		store:  store,
		budget: budget,
		now:    time.Now,
	}
}

// PriceCheck runs the full search lifecycle: normalize the itinerary, open a
// backend session, poll until completion or budget exhaustion, then persist
// the final snapshot under the MCP session. The events channel is closed here
// on every path so the consuming transport always terminates, including when
// validation rejects the trip before any network call.
func (s *PriceCheckService) PriceCheck(ctx context.Context, sessionID string,
	args dto.PriceCheckArgs, events chan<- dto.ProgressEvent,
) (dto.PriceCheckResponse, error) {
	if events != nil {
		defer close(events)
	}

	req, err := itinerary.Normalize(args.Itinerary(), s.now())
	if err != nil {
		return dto.PriceCheckResponse{}, err
	}

	requestID, err := s.client.Submit(ctx, req)
	if err != nil {
		return dto.PriceCheckResponse{}, err
	}

	slog.InfoContext(ctx, "session submitted",
		slog.String("request_id", requestID),
		slog.String("session_id", sessionID),
	)

	result, err := s.poller.Run(ctx, requestID, s.budget, events)
	if err != nil {
		return dto.PriceCheckResponse{}, err
	}

	if sessionID != "" {
		if storeErr := s.store.Put(ctx, sessionID, result); storeErr != nil {
			slog.WarnContext(ctx, "failed to store session result",
				slog.String("session_id", sessionID),
				slog.String("error", storeErr.Error()),
			)
		}
	}

	status := result.Status
	if status == "" {
		status = dto.StatusCompleted
	}

	return dto.PriceCheckResponse{
		Message:      formatOffers(result),
		SearchResult: &result,
		Status:       status,
	}, nil
}

// Submit opens a session without polling, the legacy submit_session path.
func (s *PriceCheckService) Submit(ctx context.Context, args dto.PriceCheckArgs) (string, error) {
	req, err := itinerary.Normalize(args.Itinerary(), s.now())
	if err != nil {
		return "", err
	}

	return s.client.Submit(ctx, req)
}

// Fetch reads one snapshot of an open session by backend request id, the
// legacy get_session_results path. When requestID is empty the stored
// snapshot for the MCP session is returned instead.
func (s *PriceCheckService) Fetch(ctx context.Context, sessionID, requestID string) (dto.SessionResult, error) {
	if requestID != "" {
		return s.client.FetchResults(ctx, requestID)
	}

	result, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, offerstore.ErrNotFound) {
			return dto.SessionResult{}, ErrNoStoredResults
		}

		return dto.SessionResult{}, err
	}

	return result, nil
}

// formatOffers renders one offer per line with its booking link, the text a
// chat client shows verbatim.
func formatOffers(result dto.SessionResult) string {
	var sb strings.Builder

	count := result.TotalResults
	if count == 0 {
		count = len(result.Results)
	}

	fmt.Fprintf(&sb, "Flight price search completed! Found %d result(s):\n\n", count)

	if len(result.Results) == 0 {
		sb.WriteString("No results found.\n")

		return strings.TrimSpace(sb.String())
	}

	for i, offer := range result.Results {
		rank := offer.Rank
		if rank == 0 {
			rank = i + 1
		}

		price := offer.Price
		if price == "" {
			price = "N/A"
		}

		website := offer.Website
		if website == "" {
			website = "Unknown"
		}

		fmt.Fprintf(&sb, "%d. %s - %s", rank, website, price)
		if offer.FareType != "" {
			fmt.Fprintf(&sb, " (%s)", offer.FareType)
		}
		if offer.BookingURL != "" {
			fmt.Fprintf(&sb, "\n   %s", offer.BookingURL)
		}
		sb.WriteString("\n\n")
	}

	return strings.TrimSpace(sb.String())
}
