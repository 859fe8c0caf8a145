package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("expense not found")

// Status represents the reconciliation state of an expense.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusReconciled Status = "RECONCILED"
)

// Expense is a single spending event. ConvertedAmount and ConversionCurrency
// mirror the most recent reconciliation and are nil while Status is PENDING.
type Expense struct {
	ID                 int64
	UserID             int64
	Amount             decimal.Decimal
	Currency           string
	Category           string
	Date               time.Time
	Status             Status
	ConvertedAmount    *decimal.Decimal
	ConversionCurrency *string
	CreatedAt          time.Time
}

// Stats summarizes a user's expenses for the dashboard.
type Stats struct {
	Total     int
	Converted int
	Pending   int
	ThisMonth int
}

// MonthTotal is the summed amount of expenses dated in one calendar month.
type MonthTotal struct {
	Month time.Time
	Total decimal.Decimal
}
