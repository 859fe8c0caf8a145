package reconcile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
)

type Handler struct {
	svc *reconcile.Service
}

func NewHandler(svc *reconcile.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.reconcile)
	r.Get("/history", h.history)
	r.Get("/history_specific", h.historyForExpense)
}

type reconcileRequest struct {
	ExpenseID          int64  `json:"expenseId"`
	ConversionCurrency string `json:"conversionCurrency"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Reconcile(r.Context(), reconcile.ReconcileParams{
		ExpenseID:          req.ExpenseID,
		ConversionCurrency: req.ConversionCurrency,
	}, p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResultResponse(res))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	records, err := h.svc.History(r.Context(), p.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, historyResponse{
		Message: "History fetched successfully",
		History: toRecordList(records),
	})
}

// historyForExpense answers with an empty list when expense_id is absent,
// and when the expense belongs to someone else.
func (h *Handler) historyForExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("expense_id")
	if raw == "" {
		respond.JSON(w, http.StatusOK, historyResponse{
			Message: "History for expense ID None fetched successfully",
			History: []recordResponse{},
		})

		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "expense_id must be an integer")
		return
	}

	records, err := h.svc.HistoryForExpense(r.Context(), id, p.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, historyResponse{
		Message: fmt.Sprintf("History for expense ID %d fetched successfully", id),
		History: toRecordList(records),
	})
}
