package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// EntitlementsRepository persists access grants. Rows are immutable and
// survive expiry; rental activity is derived at read time.
type EntitlementsRepository struct {
	pool *pgxpool.Pool
}

const entitlementColumns = `
    id,
    user_id,
    game_id,
    kind,
    amount_paid::text,
    granted_at,
    expires_at
`

// GrantParams bundles the fields required to create an entitlement.
type GrantParams struct {
	UserID     string
	GameID     string
	Kind       domain.EntitlementKind
	AmountPaid decimal.Decimal
	ExpiresAt  *time.Time
}

// TryGrant inserts an entitlement, enforcing the (user, game, kind)
// uniqueness key in the same statement as the insert. Of two concurrent
// grants for the same key exactly one succeeds; the other observes
// ErrAlreadyEntitled. Runs against the pool or a caller-owned transaction.
func (r *EntitlementsRepository) TryGrant(ctx context.Context, db DB, params GrantParams) (domain.Entitlement, error) {
	query := fmt.Sprintf(`
        INSERT INTO entitlements (id, user_id, game_id, kind, amount_paid, expires_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6)
        ON CONFLICT (user_id, game_id, kind) DO NOTHING
        RETURNING %s
    `, entitlementColumns)

	row := db.QueryRow(ctx, query,
		uuid.NewString(), params.UserID, params.GameID, params.Kind,
		params.AmountPaid.String(), params.ExpiresAt,
	)
	entitlement, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Entitlement{}, ErrAlreadyEntitled
		}
		return domain.Entitlement{}, err
	}
	return entitlement, nil
}

// HasExactKind reports whether the user already holds an entitlement of the
// given kind for the game, expired or not. Duplicate detection is keyed on
// the exact kind: a purchase does not block a later rental, and vice versa.
func (r *EntitlementsRepository) HasExactKind(ctx context.Context, db DB, userID, gameID string, kind domain.EntitlementKind) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM entitlements
            WHERE user_id = $1 AND game_id = $2 AND kind = $3
        )
    `, userID, gameID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check entitlement kind: %w", err)
	}
	return exists, nil
}

// HasAnyEntitlement is the review-eligibility predicate: true if the user
// holds a purchase, or a rental still active at the given instant.
func (r *EntitlementsRepository) HasAnyEntitlement(ctx context.Context, userID, gameID string, now time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM entitlements
            WHERE user_id = $1 AND game_id = $2
              AND (kind = 'purchase' OR expires_at > $3)
        )
    `, userID, gameID, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check entitlement: %w", err)
	}
	return exists, nil
}

// ListByUser returns the user's entitlements, newest first.
func (r *EntitlementsRepository) ListByUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM entitlements
        WHERE user_id = $1
        ORDER BY granted_at DESC, id DESC
    `, entitlementColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Entitlement, 0)
	for rows.Next() {
		entitlement, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, entitlement)
	}
	return items, rows.Err()
}

func scanEntitlement(row pgx.Row) (domain.Entitlement, error) {
	var (
		entitlement domain.Entitlement
		rawAmount   string
	)
	err := row.Scan(
		&entitlement.ID,
		&entitlement.UserID,
		&entitlement.GameID,
		&entitlement.Kind,
		&rawAmount,
		&entitlement.GrantedAt,
		&entitlement.ExpiresAt,
	)
	if err != nil {
		return domain.Entitlement{}, err
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return domain.Entitlement{}, fmt.Errorf("parse amount: %w", err)
	}
	entitlement.AmountPaid = amount
	return entitlement, nil
}
