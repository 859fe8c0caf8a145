package expense

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
)

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
}

type createExpenseRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var date time.Time

	if req.Date != "" {
		t, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		date = t
	}

	e, err := h.svc.Create(r.Context(), expense.CreateParams{
		UserID:   p.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Category: req.Category,
		Date:     date,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, respond.Expense(e))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	filter := expense.ListFilter{UserID: p.ID}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}

		filter.StartDate = new(t)
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}

		filter.EndDate = new(t)
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.Detail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}

		filter.Limit = n
	}

	es, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, respond.Expenses(es))
}
