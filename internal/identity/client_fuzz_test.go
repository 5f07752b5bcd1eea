package identity

import (
	"strings"
	"testing"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

func FuzzConvertToActor(f *testing.F) {
	f.Add("5f0c1a32-98a1-4f27-9f51-111111111111", "developer")
	f.Add("u1", "")
	f.Add("  ", "admin")
	f.Add("u2", "SUPERUSER")

	f.Fuzz(func(t *testing.T, id, role string) {
		actor, err := convertToActor(actorPayload{ID: id, Role: role})
		if err != nil {
			return
		}
		if strings.TrimSpace(actor.ID) == "" {
			t.Fatalf("accepted empty actor id %q", id)
		}
		if !actor.Role.Valid() {
			t.Fatalf("accepted invalid role %q -> %q", role, actor.Role)
		}
		if strings.TrimSpace(role) == "" && actor.Role != domain.RoleUser {
			t.Fatalf("empty role should default to user, got %q", actor.Role)
		}
	})
}
