package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/internal/service/parse"
	"github.com/lottobill/lottobill-backend/pkg/ctxutil"
)

type templateService interface {
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]parse.Template, error)
	SaveTemplate(ctx context.Context, userID uuid.UUID, t parse.Template) (*parse.Template, error)
}

// TemplateHandler serves the per-user parse template catalog.
type TemplateHandler struct {
	svc templateService
	log *slog.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(svc templateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, log: logger.With("handler", "templates")}
}

type createTemplateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Pattern  string `json:"pattern"`
	Priority int    `json:"priority"`
}

// List handles GET /templates: the catalog the user's parses run against.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	templates, err := h.svc.ListTemplates(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// Create handles POST /templates: store a pattern override for the user.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tpl, err := h.svc.SaveTemplate(r.Context(), userID, parse.Template{
		Name:     req.Name,
		Category: domain.Category(req.Category),
		Pattern:  req.Pattern,
		Priority: req.Priority,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}
