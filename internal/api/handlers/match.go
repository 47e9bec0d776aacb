package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/matchd/internal/api"
	"github.com/cloo-solutions/matchd/internal/api/middleware"
	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/go-chi/chi/v5"
)

type MatchService interface {
	ComputeAndStore(ctx context.Context, input service.ComputeInput) (*domain.MatchRecord, error)
	ScorePair(ctx context.Context, candidateID, jobID, actorID string) (*domain.MatchRecord, error)
	Get(ctx context.Context, candidateID, jobID string) (*domain.MatchRecord, error)
	GetByID(ctx context.Context, matchID string) (*domain.MatchRecord, error)
	ListForJob(ctx context.Context, input service.ListForJobInput) ([]*domain.MatchRecord, error)
	Transition(ctx context.Context, input service.TransitionInput) (*domain.MatchRecord, error)
	HistoryPage(ctx context.Context, input service.HistoryPageInput) (*service.HistoryPageOutput, error)
	RescoreJob(ctx context.Context, jobID, actorID string) (*service.RescoreSummary, error)
}

type MatchHandler struct {
	svc MatchService
}

func NewMatchHandler(svc MatchService) *MatchHandler {
	return &MatchHandler{svc: svc}
}

type ComputeMatchRequest struct {
	CandidateID        string    `json:"candidate_id"`
	JobID              string    `json:"job_id"`
	CandidateSkills    []string  `json:"candidate_skills"`
	CandidateEmbedding []float32 `json:"candidate_embedding"`
	JobSkills          []string  `json:"job_skills"`
	JobEmbedding       []float32 `json:"job_embedding"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type MatchResponse struct {
	ID             string             `json:"id"`
	CandidateID    string             `json:"candidate_id"`
	JobID          string             `json:"job_id"`
	MatchScore     float64            `json:"match_score"`
	SkillScore     *float64           `json:"skill_score"`
	EmbeddingScore *float64           `json:"embedding_score"`
	Status         string             `json:"status"`
	ScoreDetail    domain.ScoreDetail `json:"score_detail"`
	ComputedAt     string             `json:"computed_at"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
}

type HistoryEntryResponse struct {
	ID             string   `json:"id"`
	PreviousScore  *float64 `json:"previous_score"`
	NewScore       *float64 `json:"new_score"`
	PreviousStatus *string  `json:"previous_status"`
	NewStatus      *string  `json:"new_status"`
	Note           string   `json:"note,omitempty"`
	ActorID        string   `json:"actor_id,omitempty"`
	Timestamp      string   `json:"timestamp"`
}

type HistoryListResponse struct {
	Items   []*HistoryEntryResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func matchToResponse(m *domain.MatchRecord) *MatchResponse {
	return &MatchResponse{
		ID:             m.ID,
		CandidateID:    m.CandidateID,
		JobID:          m.JobID,
		MatchScore:     m.MatchScore,
		SkillScore:     m.SkillScore,
		EmbeddingScore: m.EmbeddingScore,
		Status:         string(m.Status),
		ScoreDetail:    m.ScoreDetail,
		ComputedAt:     m.ComputedAt.UTC().Format(time.RFC3339Nano),
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      m.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func statusString(s *domain.MatchStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func historyToResponse(e *domain.MatchHistoryEntry) *HistoryEntryResponse {
	return &HistoryEntryResponse{
		ID:             e.ID,
		PreviousScore:  e.PreviousScore,
		NewScore:       e.NewScore,
		PreviousStatus: statusString(e.PreviousStatus),
		NewStatus:      statusString(e.NewStatus),
		Note:           e.Note,
		ActorID:        e.ActorID,
		Timestamp:      e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Compute scores a pair from profiles supplied in the request body.
func (h *MatchHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CandidateID == "" {
		api.Error(w, http.StatusBadRequest, "candidate_id is required")
		return
	}
	if req.JobID == "" {
		api.Error(w, http.StatusBadRequest, "job_id is required")
		return
	}

	match, err := h.svc.ComputeAndStore(r.Context(), service.ComputeInput{
		CandidateID:        req.CandidateID,
		JobID:              req.JobID,
		CandidateSkills:    req.CandidateSkills,
		CandidateEmbedding: req.CandidateEmbedding,
		JobSkills:          req.JobSkills,
		JobEmbedding:       req.JobEmbedding,
		ActorID:            middleware.GetActorID(r.Context()),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matchToResponse(match))
}

// ScorePair scores a stored candidate against a stored job.
func (h *MatchHandler) ScorePair(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	candidateID := chi.URLParam(r, "candidateID")

	match, err := h.svc.ScorePair(r.Context(), candidateID, jobID, middleware.GetActorID(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matchToResponse(match))
}

func (h *MatchHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	candidateID := chi.URLParam(r, "candidateID")

	match, err := h.svc.Get(r.Context(), candidateID, jobID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matchToResponse(match))
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	match, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matchToResponse(match))
}

func (h *MatchHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	query := r.URL.Query()

	input := service.ListForJobInput{JobID: jobID}

	if raw := query.Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "min_score must be a number")
			return
		}
		input.MinScore = &minScore
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		input.Limit = limit
	}

	matches, err := h.svc.ListForJob(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*MatchResponse, len(matches))
	for i, m := range matches {
		responses[i] = matchToResponse(m)
	}

	api.Success(w, http.StatusOK, responses)
}

func (h *MatchHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		api.Error(w, http.StatusBadRequest, "status is required")
		return
	}

	match, err := h.svc.Transition(r.Context(), service.TransitionInput{
		MatchID: id,
		Status:  req.Status,
		ActorID: middleware.GetActorID(r.Context()),
		Note:    req.Note,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matchToResponse(match))
}

func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	page, err := h.svc.HistoryPage(r.Context(), service.HistoryPageInput{
		MatchID: id,
		Cursor:  query.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*HistoryEntryResponse, len(page.Items))
	for i, e := range page.Items {
		items[i] = historyToResponse(e)
	}

	api.Success(w, http.StatusOK, HistoryListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *MatchHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	summary, err := h.svc.RescoreJob(r.Context(), jobID, middleware.GetActorID(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, summary)
}
