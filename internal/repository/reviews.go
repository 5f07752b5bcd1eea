package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// ReviewsRepository persists game reviews, one per (user, game).
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// ReviewCreateParams bundles the fields required to create a review.
type ReviewCreateParams struct {
	UserID string
	GameID string
	Rating int
	Body   string
}

// Create inserts a review, detecting the per-(user, game) duplicate in the
// same statement. Runs against the pool or a caller-owned transaction so the
// insert and the rating aggregation commit together.
func (r *ReviewsRepository) Create(ctx context.Context, db DB, params ReviewCreateParams) (domain.Review, error) {
	var review domain.Review
	err := db.QueryRow(ctx, `
        INSERT INTO reviews (id, user_id, game_id, rating, body)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, game_id) DO NOTHING
        RETURNING id, user_id, game_id, rating, body, created_at
    `, uuid.NewString(), params.UserID, params.GameID, params.Rating, params.Body).Scan(
		&review.ID,
		&review.UserID,
		&review.GameID,
		&review.Rating,
		&review.Body,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrDuplicateReview
		}
		return domain.Review{}, err
	}
	return review, nil
}
