package service

import (
	"context"
	"io"
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockMatchRepository is a mock implementation of MatchRepositoryInterface
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) GetByPair(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, candidateID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) GetByPairForUpdate(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, candidateID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchRepository) Insert(ctx context.Context, rec *domain.MatchRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) UpdateScores(ctx context.Context, rec *domain.MatchRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockMatchRepository) UpdateStatus(ctx context.Context, id string, status domain.MatchStatus, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

func (m *MockMatchRepository) ListByJob(ctx context.Context, jobID string, minScore *float64, limit int) ([]*domain.MatchRecord, error) {
	args := m.Called(ctx, jobID, minScore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MatchRecord), args.Error(1)
}

// MockHistoryRepository is a mock implementation of MatchHistoryRepositoryInterface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, e *domain.MatchHistoryEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListPage(ctx context.Context, matchID string, cursor *pagination.Cursor, limit int) (*HistoryPageResult, error) {
	args := m.Called(ctx, matchID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*HistoryPageResult), args.Error(1)
}

// MockProfiles implements both CandidateProvider and JobProvider
type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) GetCandidateProfile(ctx context.Context, candidateID string) (*domain.Profile, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfiles) ListCandidateIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfiles) GetJobProfile(ctx context.Context, jobID string) (*domain.Profile, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore that keeps the
// uploaded body for inspection.
type MockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *MockObjectStore) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.body = data
	args := m.Called(ctx, key, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type sequentialUUIDGenerator struct {
	ids []string
	pos int
}

func (g *sequentialUUIDGenerator) NewString() string {
	id := g.ids[g.pos%len(g.ids)]
	g.pos++
	return id
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
