package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/telemetry"
)

// ObjectStore is the storage surface needed for audit exports.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// HistoryExporter writes a job's matches and their full history to object
// storage as JSON Lines, one match per line.
type HistoryExporter struct {
	matches *MatchService
	store   ObjectStore
	clock   func() time.Time
}

func NewHistoryExporter(matches *MatchService, store ObjectStore) *HistoryExporter {
	return &HistoryExporter{matches: matches, store: store, clock: time.Now}
}

type ExportResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Matches     int    `json:"matches"`
	Entries     int    `json:"entries"`
}

type exportLine struct {
	MatchID        string               `json:"match_id"`
	CandidateID    string               `json:"candidate_id"`
	JobID          string               `json:"job_id"`
	MatchScore     float64              `json:"match_score"`
	SkillScore     *float64             `json:"skill_score"`
	EmbeddingScore *float64             `json:"embedding_score"`
	Status         domain.MatchStatus   `json:"status"`
	ComputedAt     time.Time            `json:"computed_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	History        []exportHistoryEntry `json:"history"`
}

type exportHistoryEntry struct {
	PreviousScore  *float64            `json:"previous_score"`
	NewScore       *float64            `json:"new_score"`
	PreviousStatus *domain.MatchStatus `json:"previous_status"`
	NewStatus      *domain.MatchStatus `json:"new_status"`
	Note           string              `json:"note,omitempty"`
	ActorID        string              `json:"actor_id,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

// ExportKey is the object key for an export of jobID taken at ts.
func ExportKey(jobID string, ts time.Time) string {
	return fmt.Sprintf("history/%s/%s.jsonl", jobID, ts.UTC().Format("20060102T150405Z"))
}

// ExportJob exports every match of the job with its history.
func (e *HistoryExporter) ExportJob(ctx context.Context, jobID string) (*ExportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "HistoryExporter.ExportJob", telemetry.SpanAttributes{
		JobID:     jobID,
		Operation: "export",
	})
	defer span.End()

	records, err := e.matches.ListForJob(ctx, ListForJobInput{JobID: jobID})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	entries := 0

	for _, m := range records {
		line := exportLine{
			MatchID:        m.ID,
			CandidateID:    m.CandidateID,
			JobID:          m.JobID,
			MatchScore:     m.MatchScore,
			SkillScore:     m.SkillScore,
			EmbeddingScore: m.EmbeddingScore,
			Status:         m.Status,
			ComputedAt:     m.ComputedAt,
			UpdatedAt:      m.UpdatedAt,
			History:        []exportHistoryEntry{},
		}

		for h, err := range e.matches.History(ctx, m.ID) {
			if err != nil {
				return nil, fmt.Errorf("failed to read history for match %s: %w", m.ID, err)
			}
			line.History = append(line.History, exportHistoryEntry{
				PreviousScore:  h.PreviousScore,
				NewScore:       h.NewScore,
				PreviousStatus: h.PreviousStatus,
				NewStatus:      h.NewStatus,
				Note:           h.Note,
				ActorID:        h.ActorID,
				Timestamp:      h.Timestamp,
			})
		}
		entries += len(line.History)

		if err := enc.Encode(line); err != nil {
			return nil, fmt.Errorf("failed to encode export line: %w", err)
		}
	}

	key := ExportKey(jobID, e.clock())
	if err := e.store.PutObject(ctx, key, "application/x-ndjson", &buf); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
	}

	url, err := e.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrStorageOperationFail.Message, err)
	}

	return &ExportResult{
		Key:         key,
		DownloadURL: url,
		Matches:     len(records),
		Entries:     entries,
	}, nil
}
