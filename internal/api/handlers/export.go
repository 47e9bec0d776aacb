package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/matchd/internal/api"
	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/go-chi/chi/v5"
)

type HistoryExporter interface {
	ExportJob(ctx context.Context, jobID string) (*service.ExportResult, error)
}

type ExportHandler struct {
	exporter HistoryExporter
}

// NewExportHandler accepts a nil exporter; requests then get 503.
func NewExportHandler(exporter HistoryExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

func (h *ExportHandler) ExportJob(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		api.Error(w, http.StatusServiceUnavailable, "history export not configured: S3 settings required")
		return
	}

	result, err := h.exporter.ExportJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, result)
}
