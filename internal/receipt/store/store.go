package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/expensight/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/expensight/internal/expense/store"
	"github.com/MrJamesThe3rd/expensight/internal/receipt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type uploadTx struct {
	tx *sql.Tx
}

func (s *Store) BeginUpload(ctx context.Context) (receipt.UploadTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning upload tx: %w", err)
	}

	return &uploadTx{tx: tx}, nil
}

func (u *uploadTx) Commit() error   { return u.tx.Commit() }
func (u *uploadTx) Rollback() error { return u.tx.Rollback() }

func (u *uploadTx) CreateExpense(ctx context.Context, e *expense.Expense) error {
	return expenseStore.InsertExpense(ctx, u.tx, e)
}

func (u *uploadTx) CreateReceipt(ctx context.Context, r *receipt.Receipt) error {
	query := `
		INSERT INTO receipts (filename, user_id, expense_id, uploaded_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, uploaded_at
	`

	if err := u.tx.QueryRowContext(ctx, query, r.Filename, r.UserID, r.ExpenseID).
		Scan(&r.ID, &r.UploadedAt); err != nil {
		return fmt.Errorf("creating receipt: %w", err)
	}

	return nil
}
