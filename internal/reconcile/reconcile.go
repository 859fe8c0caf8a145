// Package reconcile converts expenses into a target currency at the historical
// rate of their transaction date and keeps an append-only audit trail of every
// conversion.
package reconcile

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
)

var (
	ErrInvalidRequest = errors.New("invalid reconciliation request")
	ErrForbidden      = errors.New("you do not have permission to access this expense")
	// ErrPartialReconciliation means the outcome of the atomic write is unknown,
	// e.g. the commit itself failed.
	ErrPartialReconciliation = errors.New("reconciliation outcome unknown")
)

// Record is one immutable conversion. BaseCurrency is the expense currency at
// the time of conversion. Expense is attached on reads.
type Record struct {
	ID                 int64
	ExpenseID          int64
	UserID             int64
	BaseCurrency       string
	ConversionCurrency string
	FXRate             decimal.Decimal
	ConvertedAmount    decimal.Decimal
	CreatedAt          time.Time
	Expense            *expense.Expense
}

// Result is the outcome of a successful reconciliation. Expense is the
// projection as committed alongside the record.
type Result struct {
	ID                 int64
	Status             expense.Status
	ConvertedAmount    decimal.Decimal
	BaseCurrency       string
	ConversionCurrency string
	FXRate             decimal.Decimal
	CreatedAt          time.Time
	Expense            *expense.Expense
}

// Convert multiplies amount by rate and rounds to 2 places, half away from
// zero. For positive amounts that is round-half-up: 99.995 becomes 100.00.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
