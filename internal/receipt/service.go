package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/expensight/internal/currency"
	"github.com/MrJamesThe3rd/expensight/internal/expense"
)

// mimeTypes maps accepted upload extensions to the type sent to the model.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".pdf":  "application/pdf",
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=receipt
type Repository interface {
	BeginUpload(ctx context.Context) (UploadTx, error)
}

// UploadTx writes the expense and its receipt together.
type UploadTx interface {
	CreateExpense(ctx context.Context, e *expense.Expense) error
	CreateReceipt(ctx context.Context, r *Receipt) error
	Commit() error
	Rollback() error
}

type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error)
}

type Service struct {
	repo      Repository
	extractor Extractor
	logger    *slog.Logger
}

func NewService(repo Repository, extractor Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, extractor: extractor, logger: logger}
}

type UploadParams struct {
	UserID   int64
	Filename string
	Data     []byte
}

// MIMEType returns the content type for an accepted receipt file name.
func MIMEType(filename string) (string, error) {
	mt, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", ErrUnsupportedFile
	}

	return mt, nil
}

// Upload extracts expense data from the file and stores a PENDING expense
// plus a receipt row pointing at it.
func (s *Service) Upload(ctx context.Context, params UploadParams) (*Upload, error) {
	mimeType, err := MIMEType(params.Filename)
	if err != nil {
		return nil, err
	}

	if len(params.Data) == 0 {
		return nil, ErrEmptyFile
	}

	extracted, err := s.extractor.Extract(ctx, params.Data, mimeType)
	if err != nil {
		s.logger.Warn("receipt extraction failed", "user_id", params.UserID, "filename", params.Filename, "error", err)
		return nil, err
	}

	code, err := currency.Parse(extracted.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	category := extracted.Category
	if category == "" {
		category = "Uncategorized"
	}

	e := &expense.Expense{
		UserID:   params.UserID,
		Amount:   extracted.Amount,
		Currency: code,
		Category: category,
		Date:     extracted.Date,
	}

	utx, err := s.repo.BeginUpload(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upload: %w", err)
	}
	defer utx.Rollback()

	if err := utx.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	r := &Receipt{
		Filename:  filepath.Base(params.Filename),
		UserID:    params.UserID,
		ExpenseID: e.ID,
	}
	if err := utx.CreateReceipt(ctx, r); err != nil {
		return nil, err
	}

	if err := utx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upload: %w", err)
	}

	return &Upload{Expense: e, Receipt: r}, nil
}
