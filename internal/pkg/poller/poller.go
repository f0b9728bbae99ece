// Package poller drives the submit-then-poll lifecycle of a price-discovery
// session against a time budget.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/navifare/mcp-server/internal/app/dto"
)

// State tracks where a run is in its lifecycle. It only moves forward.
type State string

const (
	StatePolling State = "POLLING"
	StateDone    State = "DONE"
)

// ResultFetcher reads one snapshot of an open session.
type ResultFetcher interface {
	FetchResults(ctx context.Context, requestID string) (dto.SessionResult, error)
}

type Poller struct {
	fetcher  ResultFetcher
	interval time.Duration
	logger   *slog.Logger
}

func New(fetcher ResultFetcher, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Run polls a session until it completes or the budget elapses, emitting a
// progress event whenever the result count grows or the backend reports
// completion. Events are sent non-blocking; a full channel drops the event
// rather than stalling the poll loop. The caller owns closing events.
//
// Fetch errors are logged and absorbed, the next tick retries. On budget
// exhaustion the last snapshot wins; if no fetch ever succeeded, one final
// synchronous fetch decides between a snapshot and an error, and still
// emits progress when it finds results.
func (p *Poller) Run(ctx context.Context, requestID string, budget time.Duration, events chan<- dto.ProgressEvent) (dto.SessionResult, error) {
	deadline := time.Now().Add(budget)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	state := StatePolling
	var (
		last        dto.SessionResult
		haveResult  bool
		lastCount   int
		wasComplete bool
	)

	for state == StatePolling {
		snapshot, err := p.fetcher.FetchResults(ctx, requestID)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.WarnContext(ctx, "poll cycle failed",
				slog.String("request_id", requestID),
				slog.String("error", err.Error()),
			)
		} else {
			last = snapshot
			haveResult = true

			completed := snapshot.Status == dto.StatusCompleted
			grew := snapshot.TotalResults > lastCount
			if (grew || (completed && !wasComplete)) && snapshot.TotalResults > 0 {
				p.emit(ctx, requestID, events, snapshot)
			}
			lastCount = snapshot.TotalResults
			wasComplete = completed

			if completed {
				state = StateDone

				return last, nil
			}
		}

		if !p.sleep(ctx, deadline) {
			break
		}
	}

	if !haveResult {
		// one last chance outside the expired deadline
		finalCtx, finalCancel := context.WithTimeout(context.WithoutCancel(ctx), p.interval)
		defer finalCancel()

		snapshot, err := p.fetcher.FetchResults(finalCtx, requestID)
		if err != nil {
			return dto.SessionResult{}, err
		}
		last = snapshot

		if last.TotalResults > 0 {
			p.emit(ctx, requestID, events, last)
		}
	}

	p.logger.InfoContext(ctx, "poll budget exhausted",
		slog.String("request_id", requestID),
		slog.Int("result_count", last.TotalResults),
		slog.String("status", last.Status),
	)

	return last, nil
}

func (p *Poller) emit(ctx context.Context, requestID string, events chan<- dto.ProgressEvent, snapshot dto.SessionResult) {
	if events == nil {
		return
	}

	event := dto.ProgressEvent{
		ResultCount: snapshot.TotalResults,
		Status:      snapshot.Status,
		Snapshot:    snapshot,
	}

	select {
	case events <- event:
	default:
		p.logger.WarnContext(ctx, "progress event dropped, consumer too slow",
			slog.String("request_id", requestID),
			slog.Int("result_count", event.ResultCount),
		)
	}
}

// sleep waits one interval, clamped to the deadline. Returns false when the
// budget or the context ran out.
func (p *Poller) sleep(ctx context.Context, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}

	wait := p.interval
	if wait > remaining {
		wait = remaining
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return time.Until(deadline) > 0
	}
}
