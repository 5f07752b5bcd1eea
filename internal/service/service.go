// Package service orchestrates the storefront's transactional operations:
// purchase settlement, review submission, and forum posting.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrGameNotFound covers both a missing listing and one that is not
// published; callers cannot distinguish the two.
var ErrGameNotFound = errors.New("service: game not available")

// ErrTopicNotFound indicates the forum topic does not exist.
var ErrTopicNotFound = errors.New("service: topic not found")

// ErrForbidden indicates an access-gate denial; the wrapped message carries
// the gate's reason.
var ErrForbidden = errors.New("service: forbidden")

// ErrInvalidInput indicates a request that fails validation before any
// state is touched.
var ErrInvalidInput = errors.New("service: invalid input")

// ErrConflict is returned when a settlement keeps losing serialization
// conflicts after retries.
var ErrConflict = errors.New("service: transaction conflict, retry")

const (
	maxTxAttempts  = 5
	txRetryBackoff = 50 * time.Millisecond
)

// inSerializableTx runs fn inside a serializable transaction, retrying on
// serialization failures (SQLSTATE 40001) with exponential backoff.
func inSerializableTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	backoff := txRetryBackoff
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxTxAttempts-1 {
			return ErrConflict
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
	return ErrConflict
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
