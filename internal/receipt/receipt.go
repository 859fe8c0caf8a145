// Package receipt turns uploaded receipt images into pending expenses using
// a vision model to read the amount, currency, category and date.
package receipt

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
)

var (
	ErrUnsupportedFile = errors.New("invalid file type, only PNG, JPG, JPEG and PDF files are allowed")
	ErrEmptyFile       = errors.New("uploaded file is empty")
	// ErrUnreadable means the model answered but the answer could not be
	// turned into a valid expense.
	ErrUnreadable = errors.New("could not read the receipt, please try a clearer image")
	// ErrExtractorFailed means the model could not be reached or returned nothing.
	ErrExtractorFailed = errors.New("receipt extraction failed")
)

// Receipt links an uploaded file to the expense created from it.
type Receipt struct {
	ID         int64
	Filename   string
	UserID     int64
	ExpenseID  int64
	UploadedAt time.Time
}

// Extraction is what the model read off a receipt.
type Extraction struct {
	Amount   decimal.Decimal
	Currency string
	Category string
	Date     time.Time
}

// Upload is the outcome of a processed receipt.
type Upload struct {
	Expense *expense.Expense
	Receipt *Receipt
}
