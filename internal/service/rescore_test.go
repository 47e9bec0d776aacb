package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRescoreFixture(concurrency int) *matchServiceFixture {
	f := newMatchServiceFixture()
	f.svc = NewMatchService(MatchServiceConfig{
		TxRunner:           f.runner,
		Matches:            f.matches,
		History:            f.history,
		Candidates:         f.profiles,
		Jobs:               f.profiles,
		Clock:              fixedClock(testNow),
		RescoreConcurrency: concurrency,
	})
	return f
}

func TestMatchService_ScorePair(t *testing.T) {
	f := newRescoreFixture(1)
	ctx := context.Background()

	f.profiles.On("GetJobProfile", mock.Anything, "job-1").Return(&domain.Profile{
		ID: "job-1", Skills: []string{"go"}, Embedding: []float32{0, 1},
	}, nil)
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-1").Return(&domain.Profile{
		ID: "cand-1", Skills: []string{"go"}, Embedding: []float32{0, 1},
	}, nil)
	f.matches.On("GetByPairForUpdate", mock.Anything, "cand-1", "job-1").Return(nil, domain.ErrMatchNotFound)
	f.matches.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)

	m, err := f.svc.ScorePair(ctx, "cand-1", "job-1", "system")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.MatchScore, 1e-9)
	assert.Equal(t, domain.ScoreMethodCombined, m.ScoreDetail.Method)
}

func TestMatchService_ScorePair_UnknownCandidate(t *testing.T) {
	f := newRescoreFixture(1)
	ctx := context.Background()

	f.profiles.On("GetJobProfile", mock.Anything, "job-1").Return(&domain.Profile{ID: "job-1"}, nil)
	f.profiles.On("GetCandidateProfile", mock.Anything, "ghost").Return(nil, domain.ErrCandidateNotFound)

	_, err := f.svc.ScorePair(ctx, "ghost", "job-1", "")
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
	assert.EqualValues(t, 0, f.runner.calls.Load())
}

func TestMatchService_RescoreJob_CountsFailures(t *testing.T) {
	f := newRescoreFixture(2)
	ctx := context.Background()

	f.profiles.On("GetJobProfile", mock.Anything, "job-1").Return(&domain.Profile{ID: "job-1", Skills: []string{"go"}}, nil)
	f.profiles.On("ListCandidateIDs", mock.Anything).Return([]string{"cand-1", "cand-2", "cand-3"}, nil)
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-1").Return(&domain.Profile{ID: "cand-1", Skills: []string{"go"}}, nil)
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-2").Return(nil, errors.New("profile store down"))
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-3").Return(&domain.Profile{ID: "cand-3"}, nil)
	f.matches.On("GetByPairForUpdate", mock.Anything, mock.Anything, "job-1").Return(nil, domain.ErrMatchNotFound)
	f.matches.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)

	summary, err := f.svc.RescoreJob(ctx, "job-1", "system")
	require.NoError(t, err)
	assert.Equal(t, "job-1", summary.JobID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Scored)
	assert.Equal(t, 1, summary.Failed)
	f.matches.AssertNumberOfCalls(t, "Insert", 2)
}

// sentryRecorder collects what a hub would have sent.
type sentryRecorder struct {
	mu           sync.Mutex
	errors       []*sentry.Event
	transactions []*sentry.Event
}

func (r *sentryRecorder) Errors() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.errors...)
}

func (r *sentryRecorder) Transactions() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.transactions...)
}

// recordingContext returns a context whose hub records events, with every
// transaction sampled, instead of sending them.
func recordingContext(t *testing.T) (context.Context, *sentryRecorder) {
	t.Helper()

	rec := &sentryRecorder{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              "https://public@sentry.example.com/1",
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.errors = append(rec.errors, event)
			return nil
		},
		BeforeSendTransaction: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.transactions = append(rec.transactions, event)
			return nil
		},
	})
	require.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), rec
}

func TestMatchService_RescoreJob_ReportsOnlyUnexpectedFailures(t *testing.T) {
	f := newRescoreFixture(3)
	ctx, rec := recordingContext(t)

	f.profiles.On("GetJobProfile", mock.Anything, "job-1").Return(&domain.Profile{
		ID: "job-1", Skills: []string{"go"}, Embedding: []float32{1, 0},
	}, nil)
	f.profiles.On("ListCandidateIDs", mock.Anything).Return([]string{"cand-gone", "cand-down", "cand-3d"}, nil)
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-gone").Return(nil, domain.ErrCandidateNotFound)
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-down").Return(nil, errors.New("profile store down"))
	f.profiles.On("GetCandidateProfile", mock.Anything, "cand-3d").Return(&domain.Profile{
		ID: "cand-3d", Skills: []string{"go"}, Embedding: []float32{1, 0, 0},
	}, nil)

	summary, err := f.svc.RescoreJob(ctx, "job-1", "system")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failed)

	events := rec.Errors()
	require.Len(t, events, 1)
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "profile store down", events[0].Exception[len(events[0].Exception)-1].Value)
	f.matches.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestMatchService_RescoreJob_UnknownJob(t *testing.T) {
	f := newRescoreFixture(2)
	ctx := context.Background()

	f.profiles.On("GetJobProfile", mock.Anything, "job-x").Return(nil, domain.ErrJobNotFound)

	_, err := f.svc.RescoreJob(ctx, "job-x", "system")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	f.profiles.AssertNotCalled(t, "ListCandidateIDs", mock.Anything)
}

func TestMatchService_RescoreJob_Cancelled(t *testing.T) {
	f := newRescoreFixture(1)
	ctx, cancel := context.WithCancel(context.Background())

	f.profiles.On("GetJobProfile", mock.Anything, "job-1").Return(&domain.Profile{ID: "job-1"}, nil)
	f.profiles.On("ListCandidateIDs", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return([]string{"cand-1"}, nil)

	_, err := f.svc.RescoreJob(ctx, "job-1", "system")
	assert.ErrorIs(t, err, context.Canceled)
}
