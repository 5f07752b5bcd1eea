package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// GamesRepository persists catalog listings and owns the rating aggregate.
type GamesRepository struct {
	pool *pgxpool.Pool
}

const gameColumns = `
    id,
    title,
    developer_id,
    price::text,
    rental_price::text,
    rental_days,
    is_free,
    status,
    average_rating,
    rating_count,
    created_at,
    updated_at
`

// GameCreateParams bundles the fields required to create a listing.
type GameCreateParams struct {
	Title       string
	DeveloperID string
	Price       decimal.Decimal
	RentalPrice *decimal.Decimal
	RentalDays  *int
	IsFree      bool
}

// GameUpdateParams carries the mutable listing fields; nil leaves a field
// unchanged.
type GameUpdateParams struct {
	Price       *decimal.Decimal
	RentalPrice *decimal.Decimal
	RentalDays  *int
	IsFree      *bool
	Status      *domain.GameStatus
}

// Create inserts a new listing in draft status and returns the stored entity.
func (r *GamesRepository) Create(ctx context.Context, params GameCreateParams) (domain.GameListing, error) {
	query := fmt.Sprintf(`
        INSERT INTO games (title, developer_id, price, rental_price, rental_days, is_free)
        VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)
        RETURNING %s
    `, gameColumns)

	row := r.pool.QueryRow(ctx, query,
		params.Title, params.DeveloperID, params.Price.String(),
		decimalPtrString(params.RentalPrice), params.RentalDays, params.IsFree,
	)
	return scanGame(row)
}

// GetByID fetches a listing by its identifier.
func (r *GamesRepository) GetByID(ctx context.Context, id string) (domain.GameListing, error) {
	return r.Get(ctx, r.pool, id)
}

// Get fetches a listing through the given querier, so settlement can read
// it inside its own transaction.
func (r *GamesRepository) Get(ctx context.Context, db DB, id string) (domain.GameListing, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns)
	game, err := scanGame(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GameListing{}, ErrNotFound
		}
		return domain.GameListing{}, err
	}
	return game, nil
}

// Update applies the provided listing fields; absent fields keep their value.
func (r *GamesRepository) Update(ctx context.Context, id string, params GameUpdateParams) (domain.GameListing, error) {
	query := fmt.Sprintf(`
        UPDATE games
        SET price = COALESCE($2::numeric, price),
            rental_price = COALESCE($3::numeric, rental_price),
            rental_days = COALESCE($4, rental_days),
            is_free = COALESCE($5, is_free),
            status = COALESCE($6, status),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, gameColumns)

	row := r.pool.QueryRow(ctx, query, id,
		decimalPtrString(params.Price), decimalPtrString(params.RentalPrice),
		params.RentalDays, params.IsFree, params.Status,
	)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GameListing{}, ErrNotFound
		}
		return domain.GameListing{}, err
	}
	return game, nil
}

// ApplyRating folds a new rating into the listing's running average as a
// single read-modify-write statement, so concurrent reviews on the same
// game serialize on the row and no update is lost. The aggregate is only
// ever advanced; edits and deletions do not adjust it.
func (r *GamesRepository) ApplyRating(ctx context.Context, db DB, gameID string, rating int) error {
	tag, err := db.Exec(ctx, `
        UPDATE games
        SET average_rating = (average_rating * rating_count + $2) / (rating_count + 1),
            rating_count = rating_count + 1,
            updated_at = now()
        WHERE id = $1
    `, gameID, rating)
	if err != nil {
		return fmt.Errorf("apply rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGame(row pgx.Row) (domain.GameListing, error) {
	var (
		game      domain.GameListing
		rawPrice  string
		rawRental *string
	)
	err := row.Scan(
		&game.ID,
		&game.Title,
		&game.DeveloperID,
		&rawPrice,
		&rawRental,
		&game.RentalDays,
		&game.IsFree,
		&game.Status,
		&game.AverageRating,
		&game.RatingCount,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return domain.GameListing{}, err
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return domain.GameListing{}, fmt.Errorf("parse price: %w", err)
	}
	game.Price = price

	if rawRental != nil {
		rental, err := decimal.NewFromString(*rawRental)
		if err != nil {
			return domain.GameListing{}, fmt.Errorf("parse rental price: %w", err)
		}
		game.RentalPrice = &rental
	}
	return game, nil
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
