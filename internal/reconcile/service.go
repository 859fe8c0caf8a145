package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/currency"
	"github.com/MrJamesThe3rd/expensight/internal/expense"
	"github.com/MrJamesThe3rd/expensight/internal/fx"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reconcile
type Repository interface {
	// BeginReconcile opens a transaction holding a row lock on the expense,
	// so concurrent reconciliations of one expense commit in record order.
	BeginReconcile(ctx context.Context, expenseID int64) (ReconcileTx, error)

	ListByUser(ctx context.Context, userID int64) ([]*Record, error)
	ListByExpense(ctx context.Context, expenseID, userID int64) ([]*Record, error)
}

type ReconcileTx interface {
	InsertRecord(ctx context.Context, r *Record) error
	// UpdateProjection marks the expense RECONCILED with the given values and
	// returns the row as it now stands.
	UpdateProjection(ctx context.Context, expenseID int64, converted decimal.Decimal, conversionCurrency string) (*expense.Expense, error)
	Commit() error
	Rollback() error
}

type ExpenseGetter interface {
	Get(ctx context.Context, id int64) (*expense.Expense, error)
}

type Service struct {
	repo     Repository
	expenses ExpenseGetter
	rates    fx.Provider
	logger   *slog.Logger
}

func NewService(repo Repository, expenses ExpenseGetter, rates fx.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:     repo,
		expenses: expenses,
		rates:    rates,
		logger:   logger,
	}
}

type ReconcileParams struct {
	ExpenseID int64
	// ConversionCurrency is optional; empty means the caller's base currency.
	ConversionCurrency string
}

// Reconcile converts the expense into the target currency at the rate of its
// transaction date, then appends a Record and updates the expense projection
// in a single transaction.
func (s *Service) Reconcile(ctx context.Context, params ReconcileParams, caller auth.Principal) (*Result, error) {
	if params.ExpenseID <= 0 {
		return nil, fmt.Errorf("%w: expense id must be positive", ErrInvalidRequest)
	}

	target := caller.BaseCurrency

	if currency.Normalize(params.ConversionCurrency) != "" {
		code, err := currency.Parse(params.ConversionCurrency)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		target = code
	}

	target = currency.Normalize(target)
	if target == "" {
		return nil, fmt.Errorf("%w: no conversion currency and no base currency set", ErrInvalidRequest)
	}

	e, err := s.expenses.Get(ctx, params.ExpenseID)
	if err != nil {
		return nil, err
	}

	if e.UserID != caller.ID {
		return nil, ErrForbidden
	}

	rate, err := s.rates.HistoricalRate(ctx, e.Currency, target, calendarDate(e.Date))
	if err != nil {
		return nil, fmt.Errorf("getting %s->%s rate: %w", e.Currency, target, err)
	}

	record := &Record{
		ExpenseID:          e.ID,
		UserID:             caller.ID,
		BaseCurrency:       e.Currency,
		ConversionCurrency: target,
		FXRate:             rate,
		ConvertedAmount:    Convert(e.Amount, rate),
	}

	projection, err := s.persist(ctx, record)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:                 record.ID,
		Status:             projection.Status,
		ConvertedAmount:    record.ConvertedAmount,
		BaseCurrency:       record.BaseCurrency,
		ConversionCurrency: record.ConversionCurrency,
		FXRate:             record.FXRate,
		CreatedAt:          record.CreatedAt,
		Expense:            projection,
	}, nil
}

func (s *Service) persist(ctx context.Context, record *Record) (*expense.Expense, error) {
	rtx, err := s.repo.BeginReconcile(ctx, record.ExpenseID)
	if err != nil {
		return nil, fmt.Errorf("begin reconcile: %w", err)
	}
	defer rtx.Rollback()

	if err := rtx.InsertRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("insert reconciliation: %w", err)
	}

	projection, err := rtx.UpdateProjection(ctx, record.ExpenseID, record.ConvertedAmount, record.ConversionCurrency)
	if err != nil {
		return nil, fmt.Errorf("update expense projection: %w", err)
	}

	if err := rtx.Commit(); err != nil {
		s.logger.Error("reconciliation commit failed",
			"expense_id", record.ExpenseID,
			"user_id", record.UserID,
			"error", err,
		)

		return nil, fmt.Errorf("%w: commit: %w", ErrPartialReconciliation, err)
	}

	return projection, nil
}

// History lists every reconciliation owned by userID, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]*Record, error) {
	return s.repo.ListByUser(ctx, userID)
}

// HistoryForExpense lists reconciliations of one expense, newest first.
// Records owned by other users are left out rather than reported.
func (s *Service) HistoryForExpense(ctx context.Context, expenseID, userID int64) ([]*Record, error) {
	return s.repo.ListByExpense(ctx, expenseID, userID)
}

// calendarDate drops the time of day, taking the date as seen in UTC.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
