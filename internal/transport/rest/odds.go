package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/pkg/ctxutil"
)

type oddsService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error)
	Put(ctx context.Context, userID uuid.UUID, values map[domain.Category]float64) (*domain.OddsSchedule, error)
	PutText(ctx context.Context, userID uuid.UUID, text string) (*domain.OddsSchedule, error)
}

// OddsHandler serves the per-user odds schedule.
type OddsHandler struct {
	svc oddsService
	log *slog.Logger
}

// NewOddsHandler creates an OddsHandler.
func NewOddsHandler(svc oddsService, logger *slog.Logger) *OddsHandler {
	return &OddsHandler{svc: svc, log: logger.With("handler", "odds")}
}

type putOddsRequest struct {
	Values map[domain.Category]float64 `json:"values"`
}

type putOddsTextRequest struct {
	Text string `json:"text"`
}

// Get handles GET /odds.
func (h *OddsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	schedule, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Put handles PUT /odds.
func (h *OddsHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req putOddsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	schedule, err := h.svc.Put(r.Context(), userID, req.Values)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// PutText handles POST /odds/text: the "特码45 六肖20" shorthand.
func (h *OddsHandler) PutText(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req putOddsTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	schedule, err := h.svc.PutText(r.Context(), userID, req.Text)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}
