package respond

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
)

// Money renders an amount as a JSON number with two decimals.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// Amount renders an expense amount with at least two decimals, keeping any
// finer precision it was recorded with.
func Amount(d decimal.Decimal) json.Number {
	if d.Exponent() < -2 {
		return json.Number(d.String())
	}

	return Money(d)
}

// Rate renders a rate as a JSON number without trimming precision.
func Rate(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type ExpenseResponse struct {
	ID                 int64          `json:"id"`
	Amount             json.Number    `json:"amount"`
	Currency           string         `json:"currency"`
	Category           string         `json:"category"`
	Date               string         `json:"date"`
	Status             expense.Status `json:"status"`
	ConvertedAmount    *json.Number   `json:"convertedAmount"`
	ConversionCurrency *string        `json:"conversionCurrency"`
	CreatedAt          time.Time      `json:"createdAt"`
}

func Expense(e *expense.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:                 e.ID,
		Amount:             Amount(e.Amount),
		Currency:           e.Currency,
		Category:           e.Category,
		Date:               e.Date.Format(time.DateOnly),
		Status:             e.Status,
		ConversionCurrency: e.ConversionCurrency,
		CreatedAt:          e.CreatedAt,
	}

	if e.ConvertedAmount != nil {
		resp.ConvertedAmount = new(Money(*e.ConvertedAmount))
	}

	return resp
}

func Expenses(es []*expense.Expense) []ExpenseResponse {
	resp := make([]ExpenseResponse, len(es))
	for i, e := range es {
		resp[i] = Expense(e)
	}

	return resp
}
