package repository

import (
	"context"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/pagination"
	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultHistoryLimit = 50

// MatchHistoryRepository is append-only. Updates are also rejected by a
// trigger on the table.
type MatchHistoryRepository struct {
	db dbtx
}

func NewMatchHistoryRepository(pool *pgxpool.Pool) *MatchHistoryRepository {
	return &MatchHistoryRepository{db: pool}
}

func NewMatchHistoryRepositoryWithTx(tx pgx.Tx) *MatchHistoryRepository {
	return &MatchHistoryRepository{db: tx}
}

func (r *MatchHistoryRepository) Append(ctx context.Context, e *domain.MatchHistoryEntry) error {
	if err := domain.ValidateMatchHistoryEntry(e); err != nil {
		return err
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO match_history (id, match_record_id, previous_score, new_score, previous_status, new_status, note, actor_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING seq`,
		e.ID, e.MatchRecordID, e.PreviousScore, e.NewScore, e.PreviousStatus, e.NewStatus,
		e.Note, nullableString(e.ActorID), e.Timestamp,
	).Scan(&e.Seq)
	return translatePgError(err)
}

// ListPage returns entries oldest first, starting strictly after cursor.
func (r *MatchHistoryRepository) ListPage(ctx context.Context, matchID string, cursor *pagination.Cursor, limit int) (*service.HistoryPageResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT seq, id, match_record_id, previous_score, new_score, previous_status, new_status, note, actor_id, created_at
			 FROM match_history
			 WHERE match_record_id = $1 AND (created_at, seq) > ($2, $3)
			 ORDER BY created_at ASC, seq ASC
			 LIMIT $4`,
			matchID, cursor.Timestamp, cursor.Seq, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT seq, id, match_record_id, previous_score, new_score, previous_status, new_status, note, actor_id, created_at
			 FROM match_history
			 WHERE match_record_id = $1
			 ORDER BY created_at ASC, seq ASC
			 LIMIT $2`,
			matchID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanHistoryRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.Timestamp, last.Seq)
	}

	return &service.HistoryPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanHistoryRows(rows pgx.Rows) ([]*domain.MatchHistoryEntry, error) {
	var entries []*domain.MatchHistoryEntry
	for rows.Next() {
		var e domain.MatchHistoryEntry
		var actorID *string
		if err := rows.Scan(
			&e.Seq, &e.ID, &e.MatchRecordID, &e.PreviousScore, &e.NewScore,
			&e.PreviousStatus, &e.NewStatus, &e.Note, &actorID, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		if actorID != nil {
			e.ActorID = *actorID
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
