package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/expensight/internal/expense/store"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectRecordColumns = `
	r.id, r.expense_id, r.user_id, r.base_currency, r.conversion_currency,
	r.fx_rate, r.converted_amount, r.created_at,
` + expenseStore.SelectColumns

// scanRecord reads a reconciliation row joined with its expense.
func scanRecord(s expenseStore.Scanner) (*reconcile.Record, error) {
	var r reconcile.Record

	var row expenseStore.Row

	dest := append([]any{
		&r.ID, &r.ExpenseID, &r.UserID, &r.BaseCurrency, &r.ConversionCurrency,
		&r.FXRate, &r.ConvertedAmount, &r.CreatedAt,
	}, row.Dest()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	r.Expense = row.Expense()

	return &r, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]*reconcile.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM reconciliations r
		JOIN expenses e ON e.id = r.expense_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC`

	return s.list(ctx, query, userID)
}

func (s *Store) ListByExpense(ctx context.Context, expenseID, userID int64) ([]*reconcile.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM reconciliations r
		JOIN expenses e ON e.id = r.expense_id
		WHERE r.expense_id = $1 AND r.user_id = $2
		ORDER BY r.created_at DESC, r.id DESC`

	return s.list(ctx, query, expenseID, userID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*reconcile.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reconciliations: %w", err)
	}
	defer rows.Close()

	records := []*reconcile.Record{}

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reconciliation: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reconciliation rows: %w", err)
	}

	return records, nil
}

type reconcileTx struct {
	tx *sql.Tx
}

// BeginReconcile starts a transaction and locks the expense row so that
// records and projection updates for one expense are applied in the same order.
func (s *Store) BeginReconcile(ctx context.Context, expenseID int64) (reconcile.ReconcileTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reconcile tx: %w", err)
	}

	var locked int64
	if err := dbTx.QueryRowContext(ctx, `SELECT id FROM expenses WHERE id = $1 FOR UPDATE`, expenseID).
		Scan(&locked); err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("locking expense: %w", err)
	}

	return &reconcileTx{tx: dbTx}, nil
}

func (rtx *reconcileTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *reconcileTx) Rollback() error { return rtx.tx.Rollback() }

// InsertRecord appends a reconciliation. created_at uses clock_timestamp so it
// reflects the moment after the expense lock was taken, not the tx start.
func (rtx *reconcileTx) InsertRecord(ctx context.Context, r *reconcile.Record) error {
	query := `
		INSERT INTO reconciliations
			(expense_id, user_id, base_currency, conversion_currency, fx_rate, converted_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())
		RETURNING id, created_at
	`

	err := rtx.tx.QueryRowContext(ctx, query,
		r.ExpenseID,
		r.UserID,
		r.BaseCurrency,
		r.ConversionCurrency,
		r.FXRate,
		r.ConvertedAmount,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating reconciliation: %w", err)
	}

	return nil
}

func (rtx *reconcileTx) UpdateProjection(
	ctx context.Context,
	expenseID int64,
	converted decimal.Decimal,
	conversionCurrency string,
) (*expense.Expense, error) {
	query := `
		UPDATE expenses e
		SET status = $1, converted_amount = $2, conversion_currency = $3
		WHERE e.id = $4
		RETURNING ` + expenseStore.SelectColumns

	e, err := expenseStore.ScanExpense(rtx.tx.QueryRowContext(ctx, query,
		expense.StatusReconciled,
		converted,
		conversionCurrency,
		expenseID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("updating expense projection: %w", err)
	}

	return e, nil
}
