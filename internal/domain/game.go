package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameStatus tracks a listing's visibility in the catalog.
type GameStatus string

const (
	StatusDraft     GameStatus = "draft"
	StatusPublished GameStatus = "published"
	StatusHidden    GameStatus = "hidden"
)

// Valid reports whether the status is one of the known values.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusHidden:
		return true
	}
	return false
}

// GameListing is a catalog entry. Only Published listings are purchasable.
// RentalPrice and RentalDays are set when the developer offers rentals.
type GameListing struct {
	ID            string
	Title         string
	DeveloperID   string
	Price         decimal.Decimal
	RentalPrice   *decimal.Decimal
	RentalDays    *int
	IsFree        bool
	Status        GameStatus
	AverageRating float64
	RatingCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RentalAvailable reports whether the listing can be rented at all.
func (g GameListing) RentalAvailable() bool {
	return g.RentalPrice != nil && g.RentalDays != nil && *g.RentalDays > 0
}
