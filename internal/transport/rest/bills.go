package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/internal/service/calibration"
	"github.com/lottobill/lottobill-backend/internal/service/parse"
	"github.com/lottobill/lottobill-backend/pkg/ctxutil"
)

type parseService interface {
	ParseText(ctx context.Context, userID uuid.UUID, text string) (parse.Result, error)
	ParseAndStore(ctx context.Context, userID uuid.UUID, text, source string) (*domain.Bill, error)
	GetBill(ctx context.Context, userID, billID uuid.UUID) (*domain.Bill, error)
	ListBills(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error)
}

type settleService interface {
	SettleBill(ctx context.Context, userID, billID uuid.UUID) (*domain.Settlement, error)
	SettleParsed(ctx context.Context, bill *domain.Bill) (*domain.Settlement, error)
}

type calibrationService interface {
	Calibrate(ctx context.Context, userID, billID uuid.UUID, lineNumber, expectedVersion int, corr calibration.Correction) (*calibration.Result, error)
}

// BillHandler serves the bill lifecycle: parse, store, settle, calibrate.
type BillHandler struct {
	parse     parseService
	settle    settleService
	calibrate calibrationService
	log       *slog.Logger
}

// NewBillHandler creates a BillHandler.
func NewBillHandler(p parseService, s settleService, c calibrationService, logger *slog.Logger) *BillHandler {
	return &BillHandler{parse: p, settle: s, calibrate: c, log: logger.With("handler", "bills")}
}

type parseRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type billResponse struct {
	Bill       *domain.Bill       `json:"bill"`
	Settlement *domain.Settlement `json:"settlement,omitempty"`
}

type calibrateRequest struct {
	LineNumber      int      `json:"line_number"`
	ExpectedVersion int      `json:"expected_version"`
	Category        string   `json:"category"`
	Targets         []string `json:"targets"`
	Amount          float64  `json:"amount"`
	AmountMode      string   `json:"amount_mode"`
	Reason          string   `json:"reason,omitempty"`
}

// Preview handles POST /bills/preview: parse without persisting.
func (h *BillHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.parse.ParseText(r.Context(), userID, req.Text)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Create handles POST /bills: parse, persist and settle in one go.
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.parse.ParseAndStore(r.Context(), userID, req.Text, req.Source)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	st, err := h.settle.SettleParsed(r.Context(), bill)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, billResponse{Bill: bill, Settlement: st})
}

// List handles GET /bills.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bills, err := h.parse.ListBills(r.Context(), userID, limit, offset)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

// Get handles GET /bills/{billID}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	bill, err := h.parse.GetBill(r.Context(), userID, billID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, billResponse{Bill: bill})
}

// Settle handles POST /bills/{billID}/settle: re-settle against the current
// draws.
func (h *BillHandler) Settle(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	st, err := h.settle.SettleBill(r.Context(), userID, billID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// Calibrate handles POST /bills/{billID}/calibrate: replace one wager line's
// parse and re-settle.
func (h *BillHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := uuid.Parse(chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.calibrate.Calibrate(r.Context(), userID, billID, req.LineNumber, req.ExpectedVersion, calibration.Correction{
		Category:   domain.Category(req.Category),
		Targets:    req.Targets,
		Amount:     req.Amount,
		AmountMode: domain.AmountMode(req.AmountMode),
		Reason:     req.Reason,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
