package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/pagination"
	"github.com/cloo-solutions/matchd/internal/telemetry"
)

const (
	historyPageSize        = 100
	defaultHistoryPageSize = 50
	maxHistoryPageSize     = 500
)

type HistoryPageInput struct {
	MatchID string
	Cursor  string
	Limit   int
}

type HistoryPageOutput struct {
	Items   []*domain.MatchHistoryEntry
	Cursor  string
	HasMore bool
}

// History returns the match's history in timestamp order, oldest first.
//
// Entries are read lazily one page at a time. Each range over the returned
// sequence starts again from the first entry. A missing match yields
// ErrMatchNotFound as the only element.
func (s *MatchService) History(ctx context.Context, matchID string) iter.Seq2[*domain.MatchHistoryEntry, error] {
	return func(yield func(*domain.MatchHistoryEntry, error) bool) {
		ctx, span := telemetry.StartSpan(ctx, "MatchService.History", telemetry.SpanAttributes{
			MatchID:   matchID,
			Operation: "history",
		})
		defer span.End()

		if _, err := s.matches.GetByID(ctx, matchID); err != nil {
			yield(nil, err)
			return
		}

		var cursor *pagination.Cursor
		for {
			page, err := s.history.ListPage(ctx, matchID, cursor, historyPageSize)
			if err != nil {
				span.SetError(err)
				yield(nil, err)
				return
			}

			for _, entry := range page.Items {
				if !yield(entry, nil) {
					return
				}
			}

			if !page.HasMore || len(page.Items) == 0 {
				return
			}
			last := page.Items[len(page.Items)-1]
			cursor = &pagination.Cursor{Timestamp: last.Timestamp, Seq: last.Seq}
		}
	}
}

// CollectHistory drains History into a slice.
func (s *MatchService) CollectHistory(ctx context.Context, matchID string) ([]*domain.MatchHistoryEntry, error) {
	var entries []*domain.MatchHistoryEntry
	for entry, err := range s.History(ctx, matchID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HistoryPage returns one cursor page of a match's history for API callers.
func (s *MatchService) HistoryPage(ctx context.Context, input HistoryPageInput) (*HistoryPageOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.HistoryPage", telemetry.SpanAttributes{
		MatchID:   input.MatchID,
		Operation: "history",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}

	if _, err := s.matches.GetByID(ctx, input.MatchID); err != nil {
		return nil, err
	}

	page, err := s.history.ListPage(ctx, input.MatchID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match history: %w", err)
	}

	return &HistoryPageOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
