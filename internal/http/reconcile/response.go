package reconcile

import (
	"encoding/json"
	"time"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
)

type resultResponse struct {
	ID                 int64                    `json:"id"`
	Status             expense.Status           `json:"status"`
	ConvertedAmount    json.Number              `json:"convertedAmount"`
	BaseCurrency       string                   `json:"baseCurrency"`
	ConversionCurrency string                   `json:"conversionCurrency"`
	FXRate             json.Number              `json:"fxRate"`
	CreatedAt          time.Time                `json:"createdAt"`
	Expense            *respond.ExpenseResponse `json:"expense"`
}

type recordResponse struct {
	ID                 int64                    `json:"id"`
	ConvertedAmount    json.Number              `json:"convertedAmount"`
	BaseCurrency       string                   `json:"baseCurrency"`
	ConversionCurrency string                   `json:"conversionCurrency"`
	FXRate             json.Number              `json:"fxRate"`
	CreatedAt          time.Time                `json:"createdAt"`
	Expense            *respond.ExpenseResponse `json:"expense"`
}

type historyResponse struct {
	Message string           `json:"message"`
	History []recordResponse `json:"reconciliation_history"`
}

func expenseView(e *expense.Expense) *respond.ExpenseResponse {
	if e == nil {
		return nil
	}

	return new(respond.Expense(e))
}

func toResultResponse(res *reconcile.Result) resultResponse {
	return resultResponse{
		ID:                 res.ID,
		Status:             res.Status,
		ConvertedAmount:    respond.Money(res.ConvertedAmount),
		BaseCurrency:       res.BaseCurrency,
		ConversionCurrency: res.ConversionCurrency,
		FXRate:             respond.Rate(res.FXRate),
		CreatedAt:          res.CreatedAt,
		Expense:            expenseView(res.Expense),
	}
}

func toRecordResponse(r *reconcile.Record) recordResponse {
	return recordResponse{
		ID:                 r.ID,
		ConvertedAmount:    respond.Money(r.ConvertedAmount),
		BaseCurrency:       r.BaseCurrency,
		ConversionCurrency: r.ConversionCurrency,
		FXRate:             respond.Rate(r.FXRate),
		CreatedAt:          r.CreatedAt,
		Expense:            expenseView(r.Expense),
	}
}

func toRecordList(records []*reconcile.Record) []recordResponse {
	resp := make([]recordResponse, len(records))
	for i, r := range records {
		resp[i] = toRecordResponse(r)
	}

	return resp
}
