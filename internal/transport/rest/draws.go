package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/pkg/ctxutil"
)

type drawService interface {
	RecordMessage(ctx context.Context, text string) ([]domain.DrawResult, error)
	Latest(ctx context.Context, region string) (*domain.DrawResult, error)
	LatestAll(ctx context.Context) (map[string]*domain.DrawResult, error)
}

// DrawHandler serves draw recording and lookups.
type DrawHandler struct {
	svc drawService
	log *slog.Logger
}

// NewDrawHandler creates a DrawHandler.
func NewDrawHandler(svc drawService, logger *slog.Logger) *DrawHandler {
	return &DrawHandler{svc: svc, log: logger.With("handler", "draws")}
}

type recordDrawRequest struct {
	Text string `json:"text"`
}

// Record handles POST /draws: ingest one announcement message, which may
// carry several regions.
func (h *DrawHandler) Record(w http.ResponseWriter, r *http.Request) {
	if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req recordDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.svc.RecordMessage(r.Context(), req.Text)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"draws": results})
}

// LatestAll handles GET /draws/latest.
func (h *DrawHandler) LatestAll(w http.ResponseWriter, r *http.Request) {
	draws, err := h.svc.LatestAll(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draws": draws})
}

// Latest handles GET /draws/{region}/latest.
func (h *DrawHandler) Latest(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")

	d, err := h.svc.Latest(r.Context(), region)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
