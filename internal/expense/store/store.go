package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// SelectColumns lists expense columns in the order ScanExpense expects,
// qualified with alias e. Other stores join on expenses with it.
const SelectColumns = `
	e.id, e.user_id, e.amount, e.currency, e.category, e.date, e.status,
	e.converted_amount, e.conversion_currency, e.created_at
`

// Row holds scan destinations for SelectColumns.
type Row struct {
	e                  expense.Expense
	status             string
	converted          decimal.NullDecimal
	conversionCurrency sql.NullString
}

// Dest returns the scan targets in SelectColumns order.
func (r *Row) Dest() []any {
	return []any{
		&r.e.ID, &r.e.UserID, &r.e.Amount, &r.e.Currency, &r.e.Category, &r.e.Date, &r.status,
		&r.converted, &r.conversionCurrency, &r.e.CreatedAt,
	}
}

// Expense converts the scanned columns into a domain expense.
func (r *Row) Expense() *expense.Expense {
	e := r.e
	e.Status = expense.Status(r.status)

	if r.converted.Valid {
		e.ConvertedAmount = &r.converted.Decimal
	}

	if r.conversionCurrency.Valid {
		e.ConversionCurrency = &r.conversionCurrency.String
	}

	return &e
}

// ScanExpense reads one expense row in SelectColumns order.
func ScanExpense(s Scanner) (*expense.Expense, error) {
	var row Row
	if err := s.Scan(row.Dest()...); err != nil {
		return nil, err
	}

	return row.Expense(), nil
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	return InsertExpense(ctx, s.db, e)
}

// RowQuerier is satisfied by *sql.DB and *sql.Tx.
type RowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertExpense writes a PENDING expense using db, which may be a transaction.
func InsertExpense(ctx context.Context, db RowQuerier, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (user_id, amount, currency, category, date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	e.Status = expense.StatusPending
	e.ConvertedAmount = nil
	e.ConversionCurrency = nil

	err := db.QueryRowContext(ctx, query,
		e.UserID,
		e.Amount,
		e.Currency,
		e.Category,
		e.Date,
		e.Status,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) GetExpense(ctx context.Context, id int64) (*expense.Expense, error) {
	query := `SELECT ` + SelectColumns + ` FROM expenses e WHERE e.id = $1`

	e, err := ScanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + SelectColumns + ` FROM expenses e WHERE e.user_id = $1`

	args := []any{filter.UserID}

	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND e.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND e.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY e.created_at DESC, e.id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*expense.Expense{}

	for rows.Next() {
		e, err := ScanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

func (s *Store) Stats(ctx context.Context, userID int64, monthStart time.Time) (*expense.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM expenses WHERE user_id = $1),
			(SELECT COUNT(DISTINCT expense_id) FROM reconciliations WHERE user_id = $1),
			(SELECT COUNT(*) FROM expenses WHERE user_id = $1 AND created_at >= $2)
	`

	var stats expense.Stats
	if err := s.db.QueryRowContext(ctx, query, userID, monthStart).
		Scan(&stats.Total, &stats.Converted, &stats.ThisMonth); err != nil {
		return nil, fmt.Errorf("counting expenses: %w", err)
	}

	return &stats, nil
}

func (s *Store) MonthlyTotals(ctx context.Context, userID int64, from time.Time) ([]expense.MonthTotal, error) {
	query := `
		SELECT date_trunc('month', date)::date AS month, SUM(amount)
		FROM expenses
		WHERE user_id = $1 AND date >= $2
		GROUP BY month
		ORDER BY month ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("summing expenses by month: %w", err)
	}
	defer rows.Close()

	var totals []expense.MonthTotal

	for rows.Next() {
		var t expense.MonthTotal
		if err := rows.Scan(&t.Month, &t.Total); err != nil {
			return nil, fmt.Errorf("scanning month total: %w", err)
		}

		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating month totals: %w", err)
	}

	return totals, nil
}
