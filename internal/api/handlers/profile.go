package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/matchd/internal/api"
	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProfileStore interface {
	UpsertCandidate(ctx context.Context, p *domain.Profile) error
	UpsertJob(ctx context.Context, p *domain.Profile) error
	GetCandidateProfile(ctx context.Context, candidateID string) (*domain.Profile, error)
	GetJobProfile(ctx context.Context, jobID string) (*domain.Profile, error)
}

type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

type ProfileRequest struct {
	Skills    []string  `json:"skills"`
	Embedding []float32 `json:"embedding"`
}

type ProfileResponse struct {
	ID        string    `json:"id"`
	Skills    []string  `json:"skills"`
	Embedding []float32 `json:"embedding,omitempty"`
}

func profileToResponse(p *domain.Profile) *ProfileResponse {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return &ProfileResponse{ID: p.ID, Skills: skills, Embedding: p.Embedding}
}

func decodeProfile(w http.ResponseWriter, r *http.Request, id string) (*domain.Profile, bool) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &domain.Profile{ID: id, Skills: req.Skills, Embedding: req.Embedding}, true
}

func (h *ProfileHandler) PutCandidate(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProfile(w, r, chi.URLParam(r, "candidateID"))
	if !ok {
		return
	}
	if err := h.store.UpsertCandidate(r.Context(), p); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, profileToResponse(p))
}

func (h *ProfileHandler) PutJob(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProfile(w, r, chi.URLParam(r, "jobID"))
	if !ok {
		return
	}
	if err := h.store.UpsertJob(r.Context(), p); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, profileToResponse(p))
}

func (h *ProfileHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetCandidateProfile(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, profileToResponse(p))
}

func (h *ProfileHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetJobProfile(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, profileToResponse(p))
}
