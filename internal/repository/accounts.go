package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// AccountsRepository is the ledger over account balances. Balances move only
// through Transfer and Credit; there is no raw balance write path.
type AccountsRepository struct {
	pool *pgxpool.Pool
}

// Ensure creates the account row for an identity on first sight, with a zero
// balance. Safe to call repeatedly.
func (r *AccountsRepository) Ensure(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO accounts (id) VALUES ($1)
        ON CONFLICT (id) DO NOTHING
    `, id)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// Get fetches an account by id.
func (r *AccountsRepository) Get(ctx context.Context, id string) (domain.Account, error) {
	var (
		account domain.Account
		raw     string
	)
	err := r.pool.QueryRow(ctx, `
        SELECT id, balance::text, created_at, updated_at
        FROM accounts
        WHERE id = $1
    `, id).Scan(&account.ID, &raw, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse balance: %w", err)
	}
	account.Balance = balance
	return account, nil
}

// Credit adds external funds to an account, recording a deposit ledger entry.
func (r *AccountsRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	tag, err := r.pool.Exec(ctx, `
        UPDATE accounts
        SET balance = balance + $2::numeric, updated_at = now()
        WHERE id = $1
    `, id, amount.String())
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = r.pool.Exec(ctx, `
        INSERT INTO ledger_entries (tx_group_id, account_id, delta, reason)
        VALUES ($1, $2, $3::numeric, 'deposit')
    `, uuid.NewString(), id, amount.String())
	return err
}

// Transfer debits one account and credits another as a single atomic step,
// in its own transaction.
func (r *AccountsRepository) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.TransferTx(ctx, tx, fromID, toID, amount, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TransferTx moves funds inside a caller-owned transaction. The sufficiency
// check happens here, under the row lock, so there is no check/act window.
// Either both legs apply or the surrounding transaction rolls back.
func (r *AccountsRepository) TransferTx(ctx context.Context, db DB, fromID, toID string, amount decimal.Decimal, reason string) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	// Lock rows in ascending id order so concurrent transfers over the same
	// pair cannot deadlock.
	ids := []string{fromID, toID}
	if toID < fromID {
		ids[0], ids[1] = toID, fromID
	}
	if fromID == toID {
		ids = ids[:1]
	}

	balances := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		var raw string
		err := db.QueryRow(ctx, `
            SELECT balance::text FROM accounts WHERE id = $1 FOR UPDATE
        `, id).Scan(&raw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock account %s: %w", id, err)
		}
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse balance: %w", err)
		}
		balances[id] = balance
	}

	if balances[fromID].LessThan(amount) {
		return ErrInsufficientFunds
	}

	if _, err := db.Exec(ctx, `
        UPDATE accounts SET balance = balance - $2::numeric, updated_at = now() WHERE id = $1
    `, fromID, amount.String()); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if _, err := db.Exec(ctx, `
        UPDATE accounts SET balance = balance + $2::numeric, updated_at = now() WHERE id = $1
    `, toID, amount.String()); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	_, err := db.Exec(ctx, `
        INSERT INTO ledger_entries (tx_group_id, account_id, delta, reason)
        VALUES ($1, $2, $3::numeric, $6), ($1, $4, $5::numeric, $6)
    `, uuid.NewString(), fromID, amount.Neg().String(), toID, amount.String(), reason)
	if err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}
	return nil
}
