package receipt

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/receipt"
)

// MaxUploadBytes caps the size of an uploaded receipt.
const MaxUploadBytes = 10 << 20

type Handler struct {
	svc *receipt.Service
}

func NewHandler(svc *receipt.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/upload", h.upload)
}

type receiptResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UserID     int64     `json:"userId"`
	ExpenseID  int64     `json:"expenseId"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type uploadResponse struct {
	Message string                  `json:"message"`
	Expense respond.ExpenseResponse `json:"expense"`
	Receipt receiptResponse         `json:"receipt"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	p, ok := authn.Principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Detail(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		respond.Detail(w, http.StatusBadRequest, "failed to parse form: "+err.Error())

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		respond.Detail(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "failed to read file")
		return
	}

	up, err := h.svc.Upload(r.Context(), receipt.UploadParams{
		UserID:   p.ID,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, uploadResponse{
		Message: "Receipt uploaded and processed successfully.",
		Expense: respond.Expense(up.Expense),
		Receipt: receiptResponse{
			ID:         up.Receipt.ID,
			Filename:   up.Receipt.Filename,
			UserID:     up.Receipt.UserID,
			ExpenseID:  up.Receipt.ExpenseID,
			UploadedAt: up.Receipt.UploadedAt,
		},
	})
}
