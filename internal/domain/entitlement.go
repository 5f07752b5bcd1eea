package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntitlementKind distinguishes permanent purchases from time-bounded rentals.
type EntitlementKind string

const (
	KindPurchase EntitlementKind = "purchase"
	KindRental   EntitlementKind = "rental"
)

// Valid reports whether the kind is one of the known values.
func (k EntitlementKind) Valid() bool {
	return k == KindPurchase || k == KindRental
}

// Entitlement is an immutable grant of access to a game. Rental rows are
// never deleted on expiry; activity is evaluated lazily at read time.
type Entitlement struct {
	ID         string
	UserID     string
	GameID     string
	Kind       EntitlementKind
	AmountPaid decimal.Decimal
	GrantedAt  time.Time
	ExpiresAt  *time.Time
}

// IsActive reports whether the entitlement grants access at the given
// instant. Purchases never expire; rentals are active strictly before
// their expiry.
func (e Entitlement) IsActive(now time.Time) bool {
	if e.Kind == KindPurchase {
		return true
	}
	return e.ExpiresAt != nil && now.Before(*e.ExpiresAt)
}
