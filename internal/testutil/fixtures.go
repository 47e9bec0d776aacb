package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SeedProfile upserts a candidate or job row. table is "candidates" or "jobs";
// a nil embedding is stored as NULL.
func SeedProfile(ctx context.Context, t *testing.T, pool *pgxpool.Pool, table, id string, skills []string, embedding []float32) {
	t.Helper()

	if table != "candidates" && table != "jobs" {
		t.Fatalf("unknown profile table %q", table)
	}
	if skills == nil {
		skills = []string{}
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	_, err := pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, skills, embedding) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET skills = EXCLUDED.skills, embedding = EXCLUDED.embedding, updated_at = now()`, table),
		id, skills, vec,
	)
	if err != nil {
		t.Fatalf("failed to seed %s %s: %v", table, id, err)
	}
}

// SeedPair creates the candidate and job rows a match record references,
// both with the single skill "go" and no embedding.
func SeedPair(ctx context.Context, t *testing.T, pool *pgxpool.Pool, candidateID, jobID string) {
	t.Helper()
	SeedProfile(ctx, t, pool, "candidates", candidateID, []string{"go"}, nil)
	SeedProfile(ctx, t, pool, "jobs", jobID, []string{"go"}, nil)
}

// CountMatchRecords returns how many records exist for the pair.
func CountMatchRecords(ctx context.Context, t *testing.T, pool *pgxpool.Pool, candidateID, jobID string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(ctx,
		`SELECT count(*) FROM match_records WHERE candidate_id = $1 AND job_id = $2`,
		candidateID, jobID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count match records: %v", err)
	}
	return n
}
