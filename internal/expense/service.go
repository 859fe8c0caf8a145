package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/currency"
)

var ErrInvalidAmount = errors.New("amount must be positive")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)

	Stats(ctx context.Context, userID int64, monthStart time.Time) (*Stats, error)
	MonthlyTotals(ctx context.Context, userID int64, from time.Time) ([]MonthTotal, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for defaults and month boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	UserID   int64
	Amount   decimal.Decimal
	Currency string
	Category string
	Date     time.Time
}

type ListFilter struct {
	UserID    int64
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Create records a new PENDING expense. A zero Date means today.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	code, err := currency.Parse(params.Currency)
	if err != nil {
		return nil, err
	}

	date := params.Date
	if date.IsZero() {
		date = s.now()
	}

	e := &Expense{
		UserID:   params.UserID,
		Amount:   params.Amount,
		Currency: code,
		Category: params.Category,
		Date:     date,
		Status:   StatusPending,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

// Stats counts the user's expenses, how many were ever reconciled and how many
// were created this calendar month.
func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats, err := s.repo.Stats(ctx, userID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	stats.Pending = stats.Total - stats.Converted

	return stats, nil
}

const trendMonths = 6

// Trends returns one total per month for the last six months, oldest first.
// Months without expenses are reported as zero.
func (s *Service) Trends(ctx context.Context, userID int64) ([]MonthTotal, error) {
	now := s.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	first := current.AddDate(0, -(trendMonths - 1), 0)

	totals, err := s.repo.MonthlyTotals(ctx, userID, first)
	if err != nil {
		return nil, fmt.Errorf("loading monthly totals: %w", err)
	}

	byMonth := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		byMonth[t.Month.Format("2006-01")] = t.Total
	}

	out := make([]MonthTotal, trendMonths)
	for i := range out {
		m := first.AddDate(0, i, 0)
		out[i] = MonthTotal{Month: m, Total: byMonth[m.Format("2006-01")]}
	}

	return out, nil
}
