package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
	"github.com/Anditinnis/game-distribution-platform/internal/repository"
)

// developerShare is the fraction of the gross price credited to the
// developer; the remainder goes to the platform account. Computed once on
// the gross price, never re-derived iteratively.
var developerShare = decimal.NewFromFloat(0.8)

// PurchaseService settles purchase and rental requests: it validates the
// listing, checks for an existing grant of the same kind, moves funds, and
// records the entitlement, all inside one serializable transaction, so a
// failure at any step leaves no partial state.
type PurchaseService struct {
	pool              *pgxpool.Pool
	repo              *repository.Repository
	platformAccountID string
	logger            *log.Logger
}

// NewPurchaseService constructs the settlement service. The platform
// account receives the 20% revenue share.
func NewPurchaseService(pool *pgxpool.Pool, repo *repository.Repository, platformAccountID string, logger *log.Logger) *PurchaseService {
	if logger == nil {
		logger = log.Default()
	}
	return &PurchaseService{
		pool:              pool,
		repo:              repo,
		platformAccountID: platformAccountID,
		logger:            logger,
	}
}

// Purchase settles a purchase or rental request and returns the new
// entitlement. On any rejection no balance or entitlement state changes.
func (s *PurchaseService) Purchase(ctx context.Context, actor domain.Actor, gameID string, kind domain.EntitlementKind) (domain.Entitlement, error) {
	if !kind.Valid() {
		return domain.Entitlement{}, fmt.Errorf("%w: unknown entitlement kind %q", ErrInvalidInput, kind)
	}

	var entitlement domain.Entitlement
	err := inSerializableTx(ctx, s.pool, func(tx pgx.Tx) error {
		game, err := s.repo.Games.Get(ctx, tx, gameID)
		if err != nil {
			if err == repository.ErrNotFound {
				return ErrGameNotFound
			}
			return err
		}
		if game.Status != domain.StatusPublished {
			return ErrGameNotFound
		}

		// Exact-kind duplicate check before any funds move. Holding a
		// purchase does not block a rental of the same game, or vice versa.
		held, err := s.repo.Entitlements.HasExactKind(ctx, tx, actor.ID, gameID, kind)
		if err != nil {
			return err
		}
		if held {
			return repository.ErrAlreadyEntitled
		}

		price := game.Price
		var expiresAt *time.Time
		if kind == domain.KindRental {
			if !game.RentalAvailable() {
				return fmt.Errorf("%w: listing offers no rental", ErrInvalidInput)
			}
			price = *game.RentalPrice
			expiry := time.Now().UTC().Add(time.Duration(*game.RentalDays) * 24 * time.Hour)
			expiresAt = &expiry
		}

		// Zero-price listings grant without touching the ledger; the ledger
		// itself rejects non-positive amounts.
		if price.Sign() > 0 {
			devCut := price.Mul(developerShare)
			platformCut := price.Sub(devCut)
			reason := string(kind)
			if err := s.repo.Accounts.TransferTx(ctx, tx, actor.ID, game.DeveloperID, devCut, reason); err != nil {
				return err
			}
			if err := s.repo.Accounts.TransferTx(ctx, tx, actor.ID, s.platformAccountID, platformCut, "platform_fee"); err != nil {
				return err
			}
		}

		granted, err := s.repo.Entitlements.TryGrant(ctx, tx, repository.GrantParams{
			UserID:     actor.ID,
			GameID:     gameID,
			Kind:       kind,
			AmountPaid: price,
			ExpiresAt:  expiresAt,
		})
		if err != nil {
			// A concurrent settlement won the key; rolling back restores the
			// transferred funds.
			return err
		}
		entitlement = granted
		return nil
	})
	if err != nil {
		return domain.Entitlement{}, err
	}

	s.logger.Printf("settled %s of game %s for user %s (%s)", kind, gameID, actor.ID, entitlement.AmountPaid.String())
	return entitlement, nil
}
