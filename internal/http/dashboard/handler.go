package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

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
	r.Get("/stats", h.stats)
	r.Get("/trends", h.trends)
}

type statsResponse struct {
	TotalReceipts int `json:"totalReceipts"`
	Converted     int `json:"converted"`
	Pending       int `json:"pending"`
	ThisMonth     int `json:"thisMonth"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	s, err := h.svc.Stats(r.Context(), p.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, statsResponse{
		TotalReceipts: s.Total,
		Converted:     s.Converted,
		Pending:       s.Pending,
		ThisMonth:     s.ThisMonth,
	})
}

type trendPoint struct {
	Name  string      `json:"name"`
	Total json.Number `json:"total"`
}

type trendsResponse struct {
	Data []trendPoint `json:"data"`
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	totals, err := h.svc.Trends(r.Context(), p.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := trendsResponse{Data: make([]trendPoint, len(totals))}
	for i, t := range totals {
		resp.Data[i] = trendPoint{Name: t.Month.Format("Jan"), Total: respond.Money(t.Total)}
	}

	respond.JSON(w, http.StatusOK, resp)
}

