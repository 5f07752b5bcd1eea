package access

import (
	"testing"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

func TestCanCreateListing(t *testing.T) {
	tests := []struct {
		role domain.Role
		want bool
	}{
		{domain.RoleUser, false},
		{domain.RoleDeveloper, true},
		{domain.RoleAdmin, false},
	}
	for _, tc := range tests {
		d := CanCreateListing(domain.Actor{ID: "u1", Role: tc.role})
		if d.Allowed != tc.want {
			t.Errorf("CanCreateListing(role=%s).Allowed = %v, want %v", tc.role, d.Allowed, tc.want)
		}
		if !d.Allowed && d.Reason == "" {
			t.Errorf("CanCreateListing(role=%s) denied without reason", tc.role)
		}
	}
}

func TestCanMutateListing(t *testing.T) {
	listing := domain.GameListing{ID: "g1", DeveloperID: "dev1"}

	if d := CanMutateListing(domain.Actor{ID: "dev1", Role: domain.RoleDeveloper}, listing); !d.Allowed {
		t.Fatalf("owner should be allowed: %+v", d)
	}
	if d := CanMutateListing(domain.Actor{ID: "dev2", Role: domain.RoleDeveloper}, listing); d.Allowed {
		t.Fatalf("non-owner should be denied")
	}
	// Role does not override ownership.
	if d := CanMutateListing(domain.Actor{ID: "admin", Role: domain.RoleAdmin}, listing); d.Allowed {
		t.Fatalf("admin without ownership should be denied")
	}
}

func TestCanPostInTopic(t *testing.T) {
	open := domain.Topic{ID: "t1"}
	closed := domain.Topic{ID: "t2", IsClosed: true}

	tests := []struct {
		name  string
		actor domain.Actor
		topic domain.Topic
		want  bool
	}{
		{"user in open topic", domain.Actor{ID: "u1", Role: domain.RoleUser}, open, true},
		{"user in closed topic", domain.Actor{ID: "u1", Role: domain.RoleUser}, closed, false},
		{"developer in closed topic", domain.Actor{ID: "d1", Role: domain.RoleDeveloper}, closed, false},
		{"admin in closed topic", domain.Actor{ID: "a1", Role: domain.RoleAdmin}, closed, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if d := CanPostInTopic(tc.actor, tc.topic); d.Allowed != tc.want {
				t.Fatalf("Allowed = %v, want %v", d.Allowed, tc.want)
			}
		})
	}
}

func TestCanReview(t *testing.T) {
	actor := domain.Actor{ID: "u1", Role: domain.RoleUser}
	paid := domain.GameListing{ID: "g1"}
	free := domain.GameListing{ID: "g2", IsFree: true}

	if d := CanReview(actor, paid, false); d.Allowed {
		t.Fatalf("non-entitled paid game should be denied")
	}
	if d := CanReview(actor, paid, true); !d.Allowed {
		t.Fatalf("entitled game should be allowed")
	}
	if d := CanReview(actor, free, false); !d.Allowed {
		t.Fatalf("free game should be allowed regardless of entitlement")
	}
}
