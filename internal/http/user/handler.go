package user

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/user"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.profile)
	r.Patch("/settings/update", h.updateSettings)
}

type profileResponse struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	BaseCurrency string    `json:"baseCurrency"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	u, err := h.svc.Get(r.Context(), p.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, profileResponse{
		ID:           u.ID,
		Email:        u.Email,
		BaseCurrency: u.BaseCurrency,
		CreatedAt:    u.CreatedAt,
	})
}

type settingsRequest struct {
	BaseCurrency string `json:"baseCurrency"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.UpdateBaseCurrency(r.Context(), p.ID, req.BaseCurrency)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Base currency updated to %s successfully.", u.BaseCurrency),
	})
}
