package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/matchd/internal/service"
	"go.uber.org/zap"
)

// SweepActorID is recorded on history entries written by the sweeper.
const SweepActorID = "matchd-sweeper"

type StaleJobLister interface {
	ListStaleJobIDs(ctx context.Context, since time.Time) ([]string, time.Time, error)
}

type JobRescorer interface {
	RescoreJob(ctx context.Context, jobID, actorID string) (*service.RescoreSummary, error)
}

// RescoreSweeper rescores every job whose inputs changed since its previous
// run. The first run treats every job as stale.
type RescoreSweeper struct {
	lister   StaleJobLister
	rescorer JobRescorer
	logger   *zap.Logger

	since time.Time
}

func NewRescoreSweeper(lister StaleJobLister, rescorer JobRescorer, logger *zap.Logger) *RescoreSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescoreSweeper{lister: lister, rescorer: rescorer, logger: logger}
}

// ProcessJobs implements JobProcessor. The watermark only advances when every
// stale job was rescored, so a failed job is retried on the next tick.
func (s *RescoreSweeper) ProcessJobs(ctx context.Context) error {
	jobIDs, watermark, err := s.lister.ListStaleJobIDs(ctx, s.since)
	if err != nil {
		return fmt.Errorf("failed to list stale jobs: %w", err)
	}

	if len(jobIDs) == 0 {
		s.since = watermark
		return nil
	}

	s.logger.Info("rescoring stale jobs", zap.Int("jobs", len(jobIDs)))

	failed := 0
	for _, jobID := range jobIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		summary, err := s.rescorer.RescoreJob(ctx, jobID, SweepActorID)
		if err != nil {
			failed++
			s.logger.Error("rescore failed", zap.String("job_id", jobID), zap.Error(err))
			continue
		}
		if summary.Failed > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d stale jobs not fully rescored", failed, len(jobIDs))
	}

	s.since = watermark
	return nil
}
