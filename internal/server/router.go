package server

import (
	"net/http"

	"github.com/cloo-solutions/matchd/internal/api"
	"github.com/cloo-solutions/matchd/internal/api/handlers"
	"github.com/cloo-solutions/matchd/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger         *zap.Logger
	MatchHandler   *handlers.MatchHandler
	ProfileHandler *handlers.ProfileHandler
	ExportHandler  *handlers.ExportHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	r.Use(middleware.ActorIdentity)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/candidates/{candidateID}", func(r chi.Router) {
		r.Put("/", cfg.ProfileHandler.PutCandidate)
		r.Get("/", cfg.ProfileHandler.GetCandidate)
	})

	r.Route("/jobs/{jobID}", func(r chi.Router) {
		r.Put("/", cfg.ProfileHandler.PutJob)
		r.Get("/", cfg.ProfileHandler.GetJob)
		r.Get("/matches", cfg.MatchHandler.ListForJob)
		r.Post("/rescore", cfg.MatchHandler.Rescore)
		r.Post("/history/export", cfg.ExportHandler.ExportJob)
		r.Post("/candidates/{candidateID}/score", cfg.MatchHandler.ScorePair)
		r.Get("/candidates/{candidateID}/match", cfg.MatchHandler.GetPair)
	})

	r.Route("/matches", func(r chi.Router) {
		r.Post("/compute", cfg.MatchHandler.Compute)
		r.Get("/{id}", cfg.MatchHandler.Get)
		r.Get("/{id}/history", cfg.MatchHandler.History)
		r.With(middleware.RequireActor).Post("/{id}/status", cfg.MatchHandler.Transition)
	})

	return r
}
