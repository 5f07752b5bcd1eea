package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anditinnis/game-distribution-platform/internal/access"
	"github.com/Anditinnis/game-distribution-platform/internal/domain"
	"github.com/Anditinnis/game-distribution-platform/internal/repository"
)

// ReviewService accepts reviews from entitled users and folds the rating
// into the game's running average.
type ReviewService struct {
	pool   *pgxpool.Pool
	repo   *repository.Repository
	logger *log.Logger
}

// NewReviewService constructs the review service.
func NewReviewService(pool *pgxpool.Pool, repo *repository.Repository, logger *log.Logger) *ReviewService {
	if logger == nil {
		logger = log.Default()
	}
	return &ReviewService{pool: pool, repo: repo, logger: logger}
}

// Submit validates and stores a review. The insert and the rating
// aggregation commit together; a duplicate review leaves the aggregate
// untouched. Ratings are whole stars in [1,5].
func (s *ReviewService) Submit(ctx context.Context, actor domain.Actor, gameID string, rating int, body string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Review{}, fmt.Errorf("%w: review text is required", ErrInvalidInput)
	}

	game, err := s.repo.Games.GetByID(ctx, gameID)
	if err != nil {
		if err == repository.ErrNotFound {
			return domain.Review{}, ErrGameNotFound
		}
		return domain.Review{}, err
	}

	entitled, err := s.repo.Entitlements.HasAnyEntitlement(ctx, actor.ID, gameID, time.Now().UTC())
	if err != nil {
		return domain.Review{}, err
	}
	if d := access.CanReview(actor, game, entitled); !d.Allowed {
		return domain.Review{}, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	var review domain.Review
	err = inSerializableTx(ctx, s.pool, func(tx pgx.Tx) error {
		created, err := s.repo.Reviews.Create(ctx, tx, repository.ReviewCreateParams{
			UserID: actor.ID,
			GameID: gameID,
			Rating: rating,
			Body:   body,
		})
		if err != nil {
			return err
		}
		if err := s.repo.Games.ApplyRating(ctx, tx, gameID, rating); err != nil {
			return err
		}
		review = created
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
