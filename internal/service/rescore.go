package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RescoreSummary reports the outcome of RescoreJob.
type RescoreSummary struct {
	JobID  string `json:"job_id"`
	Total  int    `json:"total"`
	Scored int    `json:"scored"`
	Failed int    `json:"failed"`
}

// ScorePair loads both profiles from the providers and runs ComputeAndStore.
func (s *MatchService) ScorePair(ctx context.Context, candidateID, jobID, actorID string) (*domain.MatchRecord, error) {
	if s.candidates == nil || s.jobs == nil {
		return nil, fmt.Errorf("profile providers not configured")
	}

	job, err := s.jobs.GetJobProfile(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return s.scoreCandidate(ctx, candidateID, job, actorID)
}

func (s *MatchService) scoreCandidate(ctx context.Context, candidateID string, job *domain.Profile, actorID string) (*domain.MatchRecord, error) {
	candidate, err := s.candidates.GetCandidateProfile(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	return s.ComputeAndStore(ctx, ComputeInput{
		CandidateID:        candidate.ID,
		JobID:              job.ID,
		CandidateSkills:    candidate.Skills,
		CandidateEmbedding: candidate.Embedding,
		JobSkills:          job.Skills,
		JobEmbedding:       job.Embedding,
		ActorID:            actorID,
	})
}

// RescoreJob recomputes the match of every known candidate against a job,
// typically after the posting was edited. Pairs are scored concurrently up to
// the configured limit; a failing pair is counted and logged but does not stop
// the others.
func (s *MatchService) RescoreJob(ctx context.Context, jobID, actorID string) (*RescoreSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.RescoreJob", telemetry.SpanAttributes{
		JobID:     jobID,
		ActorID:   actorID,
		Operation: "rescore",
	})
	defer span.End()

	if s.candidates == nil || s.jobs == nil {
		return nil, fmt.Errorf("profile providers not configured")
	}

	job, err := s.jobs.GetJobProfile(ctx, jobID)
	if err != nil {
		return nil, err
	}

	candidateIDs, err := s.candidates.ListCandidateIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var scored, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rescoreConcurrency)

	for _, candidateID := range candidateIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := s.scoreCandidate(gctx, candidateID, job, actorID); err != nil {
				failed.Add(1)
				s.logger.Warn("rescore pair failed",
					zap.String("candidate_id", candidateID),
					zap.String("job_id", jobID),
					zap.Error(err),
				)
				if domain.ErrorCode(err) == "" {
					telemetry.CaptureError(gctx, err)
				}
				return nil
			}
			scored.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &RescoreSummary{
		JobID:  jobID,
		Total:  len(candidateIDs),
		Scored: int(scored.Load()),
		Failed: int(failed.Load()),
	}

	s.logger.Info("job rescored",
		zap.String("job_id", jobID),
		zap.Int("total", summary.Total),
		zap.Int("scored", summary.Scored),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}
