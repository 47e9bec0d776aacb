package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/pagination"
	"github.com/cloo-solutions/matchd/internal/scoring"
	"github.com/cloo-solutions/matchd/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// maxUpsertAttempts bounds ComputeAndStore: the first try plus one retry
	// after losing an insert race on the (candidate, job) key.
	maxUpsertAttempts = 2

	defaultRescoreConcurrency = 8
)

// MatchRepositoryInterface defines the repository interface for match record persistence
type MatchRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.MatchRecord, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.MatchRecord, error)
	GetByPair(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error)
	GetByPairForUpdate(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error)
	// Insert creates the record unless one already exists for the pair.
	// It reports false, without error, when the pair is taken.
	Insert(ctx context.Context, m *domain.MatchRecord) (bool, error)
	UpdateScores(ctx context.Context, m *domain.MatchRecord) error
	UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, updatedAt time.Time) error
	ListByJob(ctx context.Context, jobID string, minScore *float64, limit int) ([]*domain.MatchRecord, error)
}

// MatchHistoryRepositoryInterface defines the append-only history log
type MatchHistoryRepositoryInterface interface {
	Append(ctx context.Context, e *domain.MatchHistoryEntry) error
	ListPage(ctx context.Context, matchID string, cursor *pagination.Cursor, limit int) (*HistoryPageResult, error)
}

// HistoryPageResult is one keyset page of history entries.
type HistoryPageResult struct {
	Items      []*domain.MatchHistoryEntry
	NextCursor string
	HasMore    bool
}

// CandidateProvider supplies candidate skills and embeddings.
type CandidateProvider interface {
	GetCandidateProfile(ctx context.Context, candidateID string) (*domain.Profile, error)
	ListCandidateIDs(ctx context.Context) ([]string, error)
}

// JobProvider supplies job skills and embeddings.
type JobProvider interface {
	GetJobProfile(ctx context.Context, jobID string) (*domain.Profile, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// MatchServiceConfig wires a MatchService. Matches and History serve reads
// outside transactions; all writes go through TxRunner.
type MatchServiceConfig struct {
	TxRunner           TxRunner
	Matches            MatchRepositoryInterface
	History            MatchHistoryRepositoryInterface
	Candidates         CandidateProvider
	Jobs               JobProvider
	UUIDGen            UUIDGenerator
	Clock              func() time.Time
	Logger             *zap.Logger
	RescoreConcurrency int
}

// MatchService owns match records: it is the only writer of scores, statuses
// and their history.
type MatchService struct {
	txRunner           TxRunner
	matches            MatchRepositoryInterface
	history            MatchHistoryRepositoryInterface
	candidates         CandidateProvider
	jobs               JobProvider
	uuidGen            UUIDGenerator
	clock              func() time.Time
	logger             *zap.Logger
	rescoreConcurrency int
}

// NewMatchService creates a new MatchService instance
func NewMatchService(cfg MatchServiceConfig) *MatchService {
	s := &MatchService{
		txRunner:           cfg.TxRunner,
		matches:            cfg.Matches,
		history:            cfg.History,
		candidates:         cfg.Candidates,
		jobs:               cfg.Jobs,
		uuidGen:            cfg.UUIDGen,
		clock:              cfg.Clock,
		logger:             cfg.Logger,
		rescoreConcurrency: cfg.RescoreConcurrency,
	}
	if s.uuidGen == nil {
		s.uuidGen = &DefaultUUIDGenerator{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.rescoreConcurrency <= 0 {
		s.rescoreConcurrency = defaultRescoreConcurrency
	}
	return s
}

// ComputeInput carries both sides of a pair for ComputeAndStore.
type ComputeInput struct {
	CandidateID        string
	JobID              string
	CandidateSkills    []string
	CandidateEmbedding []float32
	JobSkills          []string
	JobEmbedding       []float32
	ActorID            string
}

// TransitionInput represents a reviewer status change
type TransitionInput struct {
	MatchID string
	Status  string
	ActorID string
	Note    string
}

// ListForJobInput filters and bounds ListForJob. Limit <= 0 means no limit.
type ListForJobInput struct {
	JobID    string
	MinScore *float64
	Limit    int
}

func (s *MatchService) now() time.Time {
	return s.clock().UTC()
}

// ComputeAndStore scores the pair and upserts its match record.
//
// An existing record keeps its status; only score fields change. Every call
// appends exactly one history entry. Losing the insert race to a concurrent
// caller is retried once before ErrConcurrentWriteConflict is returned.
func (s *MatchService) ComputeAndStore(ctx context.Context, input ComputeInput) (*domain.MatchRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.ComputeAndStore", telemetry.SpanAttributes{
		CandidateID: input.CandidateID,
		JobID:       input.JobID,
		ActorID:     input.ActorID,
		Operation:   "compute",
	})
	defer span.End()

	if input.CandidateID == "" || input.JobID == "" {
		return nil, fmt.Errorf("%w: candidate_id and job_id", domain.ErrMissingRequiredField)
	}

	result, err := scoring.Combine(scoring.Input{
		CandidateSkills:    input.CandidateSkills,
		CandidateEmbedding: input.CandidateEmbedding,
		JobSkills:          input.JobSkills,
		JobEmbedding:       input.JobEmbedding,
	}, s.now())
	if err != nil {
		return nil, err
	}

	var record *domain.MatchRecord
	for attempt := 1; ; attempt++ {
		record, err = s.upsert(ctx, input, result)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrConcurrentWriteConflict) || attempt >= maxUpsertAttempts {
			if errors.Is(err, domain.ErrConcurrentWriteConflict) {
				s.logger.Warn("match upsert conflict persisted after retry",
					zap.String("candidate_id", input.CandidateID),
					zap.String("job_id", input.JobID),
					zap.Error(err),
				)
			}
			if domain.ErrorCode(err) == "" {
				span.SetError(err)
			}
			return nil, err
		}

		telemetry.AddBreadcrumb(ctx, "match", "retrying upsert after concurrent write conflict")
		s.logger.Debug("retrying match upsert",
			zap.String("candidate_id", input.CandidateID),
			zap.String("job_id", input.JobID),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (s *MatchService) upsert(ctx context.Context, input ComputeInput, result scoring.Result) (*domain.MatchRecord, error) {
	var record *domain.MatchRecord

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		existing, err := repos.Matches().GetByPairForUpdate(ctx, input.CandidateID, input.JobID)
		if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
			return err
		}

		// Taken after the row lock so timestamps follow commit order.
		now := s.now()
		detail := result.Detail
		detail.ComputedAt = now

		if existing != nil {
			previous := existing.MatchScore

			existing.MatchScore = result.MatchScore
			existing.SkillScore = domain.Float64Ptr(result.SkillScore)
			existing.EmbeddingScore = result.EmbeddingScore
			existing.ScoreDetail = detail
			existing.ComputedAt = now
			existing.UpdatedAt = now

			if err := domain.ValidateMatchRecord(existing); err != nil {
				return err
			}

			entry := &domain.MatchHistoryEntry{
				ID:            s.uuidGen.NewString(),
				MatchRecordID: existing.ID,
				PreviousScore: domain.Float64Ptr(previous),
				NewScore:      domain.Float64Ptr(result.MatchScore),
				Note:          "score recomputed",
				ActorID:       input.ActorID,
				Timestamp:     now,
			}
			if err := repos.History().Append(ctx, entry); err != nil {
				return err
			}
			if err := repos.Matches().UpdateScores(ctx, existing); err != nil {
				return err
			}

			record = existing
			return nil
		}

		created := &domain.MatchRecord{
			ID:             s.uuidGen.NewString(),
			CandidateID:    input.CandidateID,
			JobID:          input.JobID,
			MatchScore:     result.MatchScore,
			SkillScore:     domain.Float64Ptr(result.SkillScore),
			EmbeddingScore: result.EmbeddingScore,
			Status:         domain.InitialMatchStatus,
			ScoreDetail:    detail,
			ComputedAt:     now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := domain.ValidateMatchRecord(created); err != nil {
			return err
		}

		inserted, err := repos.Matches().Insert(ctx, created)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrConcurrentWriteConflict
		}

		entry := &domain.MatchHistoryEntry{
			ID:            s.uuidGen.NewString(),
			MatchRecordID: created.ID,
			NewScore:      domain.Float64Ptr(result.MatchScore),
			NewStatus:     domain.StatusPtr(created.Status),
			Note:          "match created",
			ActorID:       input.ActorID,
			Timestamp:     now,
		}
		if err := repos.History().Append(ctx, entry); err != nil {
			return err
		}

		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Get retrieves the match record for a (candidate, job) pair
func (s *MatchService) Get(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.Get", telemetry.SpanAttributes{
		CandidateID: candidateID,
		JobID:       jobID,
		Operation:   "get",
	})
	defer span.End()

	return s.matches.GetByPair(ctx, candidateID, jobID)
}

// GetByID retrieves a match record by ID
func (s *MatchService) GetByID(ctx context.Context, matchID string) (*domain.MatchRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.GetByID", telemetry.SpanAttributes{
		MatchID:   matchID,
		Operation: "get",
	})
	defer span.End()

	return s.matches.GetByID(ctx, matchID)
}

// ListForJob returns the job's matches ordered by score descending, ties
// broken by earliest computation.
func (s *MatchService) ListForJob(ctx context.Context, input ListForJobInput) ([]*domain.MatchRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.ListForJob", telemetry.SpanAttributes{
		JobID:     input.JobID,
		Operation: "list",
	})
	defer span.End()

	if input.JobID == "" {
		return nil, fmt.Errorf("%w: job_id", domain.ErrMissingRequiredField)
	}
	if input.MinScore != nil && (*input.MinScore < 0 || *input.MinScore > 1) {
		return nil, domain.ErrScoreOutOfRange
	}

	limit := input.Limit
	if limit < 0 {
		limit = 0
	}

	return s.matches.ListByJob(ctx, input.JobID, input.MinScore, limit)
}

// Transition moves a match through the review workflow.
//
// Moving to the current status is a successful no-op that writes no history.
func (s *MatchService) Transition(ctx context.Context, input TransitionInput) (*domain.MatchRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatchService.Transition", telemetry.SpanAttributes{
		MatchID:   input.MatchID,
		ActorID:   input.ActorID,
		Operation: "transition",
	})
	defer span.End()

	if input.MatchID == "" {
		return nil, fmt.Errorf("%w: match_id", domain.ErrMissingRequiredField)
	}

	target, err := domain.ParseMatchStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var record *domain.MatchRecord
	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		current, err := repos.Matches().GetByIDForUpdate(ctx, input.MatchID)
		if err != nil {
			return err
		}

		if current.Status == target {
			record = current
			return nil
		}

		if !domain.CanTransition(current.Status, target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, target)
		}

		now := s.now()
		entry := &domain.MatchHistoryEntry{
			ID:             s.uuidGen.NewString(),
			MatchRecordID:  current.ID,
			PreviousStatus: domain.StatusPtr(current.Status),
			NewStatus:      domain.StatusPtr(target),
			Note:           input.Note,
			ActorID:        input.ActorID,
			Timestamp:      now,
		}
		if err := repos.History().Append(ctx, entry); err != nil {
			return err
		}
		if err := repos.Matches().UpdateStatus(ctx, current.ID, target, now); err != nil {
			return err
		}

		current.Status = target
		current.UpdatedAt = now
		record = current
		return nil
	})
	if err != nil {
		if domain.ErrorCode(err) == "" {
			span.SetError(err)
		}
		return nil, err
	}

	return record, nil
}
