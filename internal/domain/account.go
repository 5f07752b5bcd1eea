package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies what an authenticated party is allowed to do.
type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDeveloper, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated party acting in a request, as resolved by the
// identity service. The engine treats it as read-only input.
type Actor struct {
	ID   string
	Role Role
}

// Account holds a party's monetary balance. Balances only move through
// ledger transfers, never through direct writes.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
