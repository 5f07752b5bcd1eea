// Package access holds the authorization predicates gating catalog
// mutation, review creation, and forum posting. Every predicate is pure:
// it consumes identity, role, and entitlement facts and returns a tagged
// decision, with no lookups of its own.
package access

import "github.com/Anditinnis/game-distribution-platform/internal/domain"

// Decision is the outcome of a gate predicate.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow grants the action.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny refuses the action with a caller-facing reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanCreateListing permits only developers to add catalog entries.
func CanCreateListing(actor domain.Actor) Decision {
	if actor.Role == domain.RoleDeveloper {
		return Allow()
	}
	return Deny("only developers can create listings")
}

// CanMutateListing permits writes only by the listing's developer.
// Read-only verbs never reach this gate.
func CanMutateListing(actor domain.Actor, listing domain.GameListing) Decision {
	if actor.ID == listing.DeveloperID {
		return Allow()
	}
	return Deny("only the listing's developer can modify it")
}

// CanPostInTopic permits posting in open topics, and in closed topics for
// admins only.
func CanPostInTopic(actor domain.Actor, topic domain.Topic) Decision {
	if !topic.IsClosed || actor.Role == domain.RoleAdmin {
		return Allow()
	}
	return Deny("topic is closed")
}

// CanReview permits reviewing a game the actor is entitled to, or any free
// game. The entitlement fact is supplied by the caller so the predicate
// stays side-effect-free.
func CanReview(actor domain.Actor, listing domain.GameListing, hasEntitlement bool) Decision {
	if hasEntitlement || listing.IsFree {
		return Allow()
	}
	return Deny("reviews require owning or renting the game")
}
