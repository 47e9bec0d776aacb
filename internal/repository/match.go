package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `id, candidate_id, job_id, match_score, skill_score, embedding_score, status, score_detail, computed_at, created_at, updated_at`

type MatchRepository struct {
	db dbtx
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: pool}
}

func NewMatchRepositoryWithTx(tx pgx.Tx) *MatchRepository {
	return &MatchRepository{db: tx}
}

func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.MatchRecord, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.MatchRecord, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *MatchRepository) getByID(ctx context.Context, id, lock string) (*domain.MatchRecord, error) {
	// ids are UUIDs; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrMatchNotFound
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_records WHERE id = $1`+lock,
		id,
	)
	return scanMatch(row)
}

func (r *MatchRepository) GetByPair(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_records WHERE candidate_id = $1 AND job_id = $2`,
		candidateID, jobID,
	)
	return scanMatch(row)
}

func (r *MatchRepository) GetByPairForUpdate(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM match_records WHERE candidate_id = $1 AND job_id = $2 FOR UPDATE`,
		candidateID, jobID,
	)
	return scanMatch(row)
}

func (r *MatchRepository) Insert(ctx context.Context, m *domain.MatchRecord) (bool, error) {
	detail, err := json.Marshal(m.ScoreDetail)
	if err != nil {
		return false, fmt.Errorf("failed to marshal score detail: %w", err)
	}

	var id string
	err = r.db.QueryRow(ctx,
		`INSERT INTO match_records (`+matchColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT ON CONSTRAINT match_records_candidate_job_key DO NOTHING
		 RETURNING id`,
		m.ID, m.CandidateID, m.JobID, m.MatchScore, m.SkillScore, m.EmbeddingScore,
		m.Status, detail, m.ComputedAt, m.CreatedAt, m.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, translatePgError(err)
	}
	return true, nil
}

func (r *MatchRepository) UpdateScores(ctx context.Context, m *domain.MatchRecord) error {
	detail, err := json.Marshal(m.ScoreDetail)
	if err != nil {
		return fmt.Errorf("failed to marshal score detail: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE match_records
		 SET match_score = $1, skill_score = $2, embedding_score = $3, score_detail = $4, computed_at = $5, updated_at = $6
		 WHERE id = $7`,
		m.MatchScore, m.SkillScore, m.EmbeddingScore, detail, m.ComputedAt, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE match_records SET status = $1, updated_at = $2 WHERE id = $3`,
		status, updatedAt, id,
	)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

// ListByJob returns the job's records by score descending, then earliest
// computation, then id. A zero limit returns everything.
func (r *MatchRepository) ListByJob(ctx context.Context, jobID string, minScore *float64, limit int) ([]*domain.MatchRecord, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM match_records
		 WHERE job_id = $1 AND ($2::double precision IS NULL OR match_score >= $2)
		 ORDER BY match_score DESC, computed_at ASC, id ASC
		 LIMIT $3`,
		jobID, minScore, limitArg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func scanMatch(row pgx.Row) (*domain.MatchRecord, error) {
	var m domain.MatchRecord
	var detail []byte
	err := row.Scan(
		&m.ID, &m.CandidateID, &m.JobID, &m.MatchScore, &m.SkillScore, &m.EmbeddingScore,
		&m.Status, &detail, &m.ComputedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &m.ScoreDetail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score detail: %w", err)
		}
	}
	m.ComputedAt = m.ComputedAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}
