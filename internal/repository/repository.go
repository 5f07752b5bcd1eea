package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anditinnis/game-distribution-platform/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrInvalidAmount indicates a non-positive transfer amount.
var ErrInvalidAmount = errors.New("repository: amount must be positive")

// ErrInsufficientFunds indicates the source account cannot cover a transfer.
var ErrInsufficientFunds = errors.New("repository: insufficient funds")

// ErrAlreadyEntitled indicates an entitlement with the same
// (user, game, kind) key already exists.
var ErrAlreadyEntitled = errors.New("repository: entitlement already granted")

// ErrDuplicateReview indicates the user already reviewed the game.
var ErrDuplicateReview = errors.New("repository: review already exists")

// DB is the querying surface shared by *pgxpool.Pool and pgx.Tx, so the
// same repository helpers can run standalone or inside a settlement
// transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Accounts     *AccountsRepository
	Games        *GamesRepository
	Entitlements *EntitlementsRepository
	Reviews      *ReviewsRepository
	Forum        *ForumRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Accounts:     &AccountsRepository{pool: pool},
		Games:        &GamesRepository{pool: pool},
		Entitlements: &EntitlementsRepository{pool: pool},
		Reviews:      &ReviewsRepository{pool: pool},
		Forum:        &ForumRepository{pool: pool},
	}
}
