package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type profileTable string

const (
	candidatesTable profileTable = "candidates"
	jobsTable       profileTable = "jobs"
)

// ProfileRepository reads and writes candidate and job profiles. The two
// tables share a shape, so one repository serves both providers.
type ProfileRepository struct {
	db dbtx
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool}
}

func NewProfileRepositoryWithTx(tx pgx.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

func (r *ProfileRepository) GetCandidateProfile(ctx context.Context, candidateID string) (*domain.Profile, error) {
	p, err := r.get(ctx, candidatesTable, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCandidateNotFound
	}
	return p, err
}

func (r *ProfileRepository) GetJobProfile(ctx context.Context, jobID string) (*domain.Profile, error) {
	p, err := r.get(ctx, jobsTable, jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return p, err
}

func (r *ProfileRepository) ListCandidateIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, `SELECT id FROM candidates ORDER BY id`)
}

// ListStaleJobIDs returns the jobs whose scores may be outdated since the
// given time: jobs whose own profile changed, or every job once any
// candidate changed. The returned watermark is the database clock read
// before the scan and is the since value for the next call.
func (r *ProfileRepository) ListStaleJobIDs(ctx context.Context, since time.Time) ([]string, time.Time, error) {
	var watermark time.Time
	if err := r.db.QueryRow(ctx, `SELECT now()`).Scan(&watermark); err != nil {
		return nil, time.Time{}, err
	}

	ids, err := r.listIDs(ctx,
		`SELECT id FROM jobs
		 WHERE updated_at > $1
		    OR EXISTS (SELECT 1 FROM candidates WHERE updated_at > $1)
		 ORDER BY id`,
		since,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	return ids, watermark.UTC(), nil
}

func (r *ProfileRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ProfileRepository) UpsertCandidate(ctx context.Context, p *domain.Profile) error {
	return r.upsert(ctx, candidatesTable, p)
}

func (r *ProfileRepository) UpsertJob(ctx context.Context, p *domain.Profile) error {
	return r.upsert(ctx, jobsTable, p)
}

func (r *ProfileRepository) get(ctx context.Context, table profileTable, id string) (*domain.Profile, error) {
	var p domain.Profile
	var embedding *pgvector.Vector
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, skills, embedding FROM %s WHERE id = $1`, table),
		id,
	).Scan(&p.ID, &p.Skills, &embedding)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		p.Embedding = embedding.Slice()
	}
	return &p, nil
}

func (r *ProfileRepository) upsert(ctx context.Context, table profileTable, p *domain.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id", domain.ErrMissingRequiredField)
	}

	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}

	var embedding *pgvector.Vector
	if p.HasEmbedding() {
		v := pgvector.NewVector(p.Embedding)
		embedding = &v
	}

	_, err := r.db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, skills, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET skills = EXCLUDED.skills, embedding = EXCLUDED.embedding, updated_at = now()`, table),
		p.ID, skills, embedding,
	)
	return err
}
