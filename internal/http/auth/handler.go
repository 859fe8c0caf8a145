package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/user"
)

type Handler struct {
	users  *user.Service
	tokens *auth.TokenIssuer
}

func NewHandler(users *user.Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{users: users, tokens: tokens}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BaseCurrency string `json:"baseCurrency"`
}

type registerResponse struct {
	Message      string `json:"message"`
	Email        string `json:"email"`
	BaseCurrency string `json:"baseCurrency"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterParams{
		Email:        req.Email,
		Password:     req.Password,
		BaseCurrency: req.BaseCurrency,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, registerResponse{
		Message:      "User registered successfully",
		Email:        u.Email,
		BaseCurrency: u.BaseCurrency,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		Message:     "User logged in successfully",
		AccessToken: token,
		TokenType:   "bearer",
	})
}
