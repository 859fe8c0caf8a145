package database

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		base_currency VARCHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		amount NUMERIC NOT NULL,
		currency VARCHAR(3) NOT NULL,
		category TEXT NOT NULL,
		date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		converted_amount NUMERIC(14, 2),
		conversion_currency VARCHAR(3),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT expenses_projection_check CHECK (
			(status = 'PENDING' AND converted_amount IS NULL AND conversion_currency IS NULL)
			OR (status = 'RECONCILED' AND converted_amount IS NOT NULL AND conversion_currency IS NOT NULL)
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id, created_at DESC)`,
	// Amounts keep their full precision; only converted amounts are rounded.
	`ALTER TABLE expenses ALTER COLUMN amount TYPE NUMERIC`,

	`CREATE TABLE IF NOT EXISTS receipts (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id),
		expense_id BIGINT NOT NULL UNIQUE REFERENCES expenses(id),
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS reconciliations (
		id BIGSERIAL PRIMARY KEY,
		expense_id BIGINT NOT NULL REFERENCES expenses(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		base_currency VARCHAR(3) NOT NULL,
		conversion_currency VARCHAR(3) NOT NULL,
		fx_rate NUMERIC(20, 10) NOT NULL,
		converted_amount NUMERIC(14, 2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reconciliations_user ON reconciliations(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reconciliations_expense ON reconciliations(expense_id, user_id, created_at DESC)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
