package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/matchd/internal/api/middleware"
	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) ComputeAndStore(ctx context.Context, input service.ComputeInput) (*domain.MatchRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) ScorePair(ctx context.Context, candidateID, jobID, actorID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, candidateID, jobID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) Get(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, candidateID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) GetByID(ctx context.Context, matchID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) ListForJob(ctx context.Context, input service.ListForJobInput) ([]*domain.MatchRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) Transition(ctx context.Context, input service.TransitionInput) (*domain.MatchRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchRecord), args.Error(1)
}

func (m *MockMatchService) HistoryPage(ctx context.Context, input service.HistoryPageInput) (*service.HistoryPageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryPageOutput), args.Error(1)
}

func (m *MockMatchService) RescoreJob(ctx context.Context, jobID, actorID string) (*service.RescoreSummary, error) {
	args := m.Called(ctx, jobID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RescoreSummary), args.Error(1)
}

func newTestMatch() *domain.MatchRecord {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.MatchRecord{
		ID:          "match-1",
		CandidateID: "cand-1",
		JobID:       "job-1",
		MatchScore:  0.8,
		SkillScore:  domain.Float64Ptr(0.5),
		Status:      domain.MatchStatusNew,
		ScoreDetail: domain.ScoreDetail{Method: domain.ScoreMethodSkillOnly, SkillWeight: 1, AlgorithmVersion: "v1"},
		ComputedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withActor(req *http.Request, actorID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ActorIDKey, actorID))
}

type matchEnvelope struct {
	Data MatchResponse `json:"data"`
}

func TestMatchHandler_Compute_Success(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("ComputeAndStore", mock.Anything, mock.MatchedBy(func(input service.ComputeInput) bool {
		return input.CandidateID == "cand-1" &&
			input.JobID == "job-1" &&
			len(input.CandidateEmbedding) == 2 &&
			input.ActorID == "alice"
	})).Return(newTestMatch(), nil)

	body := `{"candidate_id":"cand-1","job_id":"job-1","candidate_skills":["go"],"candidate_embedding":[1,0],"job_skills":["go"],"job_embedding":[1,0]}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/matches/compute", bytes.NewBufferString(body)), "alice")
	w := httptest.NewRecorder()

	handler.Compute(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp matchEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "match-1", resp.Data.ID)
	assert.Equal(t, "new", resp.Data.Status)
	assert.InDelta(t, 0.8, resp.Data.MatchScore, 1e-9)
	assert.Nil(t, resp.Data.EmbeddingScore)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.Data.ComputedAt)
	mockSvc.AssertExpectations(t)
}

func TestMatchHandler_Compute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"invalid json", `{`, "invalid request body"},
		{"missing candidate", `{"job_id":"job-1"}`, "candidate_id is required"},
		{"missing job", `{"candidate_id":"cand-1"}`, "job_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockMatchService)
			handler := NewMatchHandler(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/matches/compute", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Compute(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			mockSvc.AssertNotCalled(t, "ComputeAndStore", mock.Anything, mock.Anything)
		})
	}
}

func TestMatchHandler_Compute_DimensionMismatch(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("ComputeAndStore", mock.Anything, mock.Anything).Return(nil, domain.ErrDimensionMismatch)

	body := `{"candidate_id":"cand-1","job_id":"job-1","candidate_embedding":[1],"job_embedding":[1,0]}`
	req := httptest.NewRequest(http.MethodPost, "/matches/compute", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Compute(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeDimensionMismatch)
}

func TestMatchHandler_ScorePair(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("ScorePair", mock.Anything, "cand-1", "job-1", "alice").Return(newTestMatch(), nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/candidates/cand-1/score", nil)
	req = withActor(withURLParams(req, map[string]string{"jobID": "job-1", "candidateID": "cand-1"}), "alice")
	w := httptest.NewRecorder()

	handler.ScorePair(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestMatchHandler_GetPair_NotFound(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "cand-9", "job-1").Return(nil, domain.ErrMatchNotFound)

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1/candidates/cand-9/match", nil)
	req = withURLParams(req, map[string]string{"jobID": "job-1", "candidateID": "cand-9"})
	w := httptest.NewRecorder()

	handler.GetPair(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchHandler_Get(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, "match-1").Return(newTestMatch(), nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/matches/match-1", nil), map[string]string{"id": "match-1"})
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp matchEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ScoreMethodSkillOnly, resp.Data.ScoreDetail.Method)
}

func TestMatchHandler_ListForJob(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("ListForJob", mock.Anything, mock.MatchedBy(func(input service.ListForJobInput) bool {
		return input.JobID == "job-1" && input.MinScore != nil && *input.MinScore == 0.5 && input.Limit == 10
	})).Return([]*domain.MatchRecord{newTestMatch()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1/matches?min_score=0.5&limit=10", nil)
	req = withURLParams(req, map[string]string{"jobID": "job-1"})
	w := httptest.NewRecorder()

	handler.ListForJob(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []MatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestMatchHandler_ListForJob_BadQuery(t *testing.T) {
	for _, query := range []string{"min_score=high", "limit=-1", "limit=ten"} {
		t.Run(query, func(t *testing.T) {
			mockSvc := new(MockMatchService)
			handler := NewMatchHandler(mockSvc)

			req := httptest.NewRequest(http.MethodGet, "/jobs/job-1/matches?"+query, nil)
			req = withURLParams(req, map[string]string{"jobID": "job-1"})
			w := httptest.NewRecorder()

			handler.ListForJob(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockSvc.AssertNotCalled(t, "ListForJob", mock.Anything, mock.Anything)
		})
	}
}

func TestMatchHandler_Transition(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	updated := newTestMatch()
	updated.Status = domain.MatchStatusReviewed
	mockSvc.On("Transition", mock.Anything, service.TransitionInput{
		MatchID: "match-1",
		Status:  "reviewed",
		ActorID: "alice",
		Note:    "good fit",
	}).Return(updated, nil)

	req := httptest.NewRequest(http.MethodPost, "/matches/match-1/status", bytes.NewBufferString(`{"status":"reviewed","note":"good fit"}`))
	req = withActor(withURLParams(req, map[string]string{"id": "match-1"}), "alice")
	w := httptest.NewRecorder()

	handler.Transition(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp matchEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reviewed", resp.Data.Status)
}

func TestMatchHandler_Transition_Invalid(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("Transition", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidTransition)

	req := httptest.NewRequest(http.MethodPost, "/matches/match-1/status", bytes.NewBufferString(`{"status":"new"}`))
	req = withURLParams(req, map[string]string{"id": "match-1"})
	w := httptest.NewRecorder()

	handler.Transition(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMatchHandler_Transition_MissingStatus(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/matches/match-1/status", bytes.NewBufferString(`{}`))
	req = withURLParams(req, map[string]string{"id": "match-1"})
	w := httptest.NewRecorder()

	handler.Transition(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchHandler_History(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockSvc.On("HistoryPage", mock.Anything, service.HistoryPageInput{
		MatchID: "match-1",
		Cursor:  "abc",
		Limit:   2,
	}).Return(&service.HistoryPageOutput{
		Items: []*domain.MatchHistoryEntry{
			{ID: "h-1", NewScore: domain.Float64Ptr(0.4), NewStatus: domain.StatusPtr(domain.MatchStatusNew), Timestamp: ts},
			{ID: "h-2", PreviousStatus: domain.StatusPtr(domain.MatchStatusNew), NewStatus: domain.StatusPtr(domain.MatchStatusReviewed), ActorID: "alice", Timestamp: ts},
		},
		Cursor:  "next",
		HasMore: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/matches/match-1/history?cursor=abc&limit=2", nil)
	req = withURLParams(req, map[string]string{"id": "match-1"})
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data HistoryListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "next", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
	assert.Nil(t, resp.Data.Items[1].NewScore)
	assert.Equal(t, "reviewed", *resp.Data.Items[1].NewStatus)
}

func TestMatchHandler_Rescore(t *testing.T) {
	mockSvc := new(MockMatchService)
	handler := NewMatchHandler(mockSvc)

	mockSvc.On("RescoreJob", mock.Anything, "job-1", "alice").Return(&service.RescoreSummary{
		JobID: "job-1", Total: 3, Scored: 3,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/rescore", nil)
	req = withActor(withURLParams(req, map[string]string{"jobID": "job-1"}), "alice")
	w := httptest.NewRecorder()

	handler.Rescore(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scored":3`)
}
