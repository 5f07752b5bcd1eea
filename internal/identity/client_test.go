package identity

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(baseURL, "apikey", 2*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestResolveContract(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/actors/me" {
			t.Errorf("path = %s, want /actors/me", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "apikey" {
			t.Errorf("X-API-Key = %q", got)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer dev-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"5f0c1a32-98a1-4f27-9f51-111111111111","role":"developer"}`))
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	})

	client := newClient(t, upstream.URL)
	ctx := context.Background()

	actor, err := client.Resolve(ctx, "dev-token")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if actor.Role != domain.RoleDeveloper {
		t.Fatalf("role = %s, want developer", actor.Role)
	}
	if actor.ID != "5f0c1a32-98a1-4f27-9f51-111111111111" {
		t.Fatalf("unexpected actor id %s", actor.ID)
	}

	if _, err := client.Resolve(ctx, "bogus"); err != ErrUnauthorized {
		t.Fatalf("Resolve(bogus) err = %v, want ErrUnauthorized", err)
	}
}

func TestResolveUpstreamError(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newClient(t, upstream.URL)
	if _, err := client.Resolve(context.Background(), "any"); err == nil || err == ErrUnauthorized {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestResolveRejectsUnknownRole(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","role":"superuser"}`))
	})

	client := newClient(t, upstream.URL)
	if _, err := client.Resolve(context.Background(), "any"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
