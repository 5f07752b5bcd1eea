package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// ErrUnauthorized is returned when the upstream rejects the presented token.
var ErrUnauthorized = errors.New("identity: unauthorized")

// Client defines the contract for resolving bearer tokens against the
// identity service. Authentication itself happens upstream; the engine only
// consumes the resulting actor.
type Client interface {
	Resolve(ctx context.Context, token string) (domain.Actor, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed identity client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse identity url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Resolve exchanges a bearer token for the acting party's id and role.
func (c *HTTPClient) Resolve(ctx context.Context, token string) (domain.Actor, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "/actors/me"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.Actor{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Actor{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload actorPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return domain.Actor{}, fmt.Errorf("decode identity response: %w", err)
		}
		return convertToActor(payload)
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return domain.Actor{}, ErrUnauthorized
	default:
		c.logger.Printf("identity: unexpected status %d", resp.StatusCode)
		return domain.Actor{}, fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}
}

type actorPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func convertToActor(payload actorPayload) (domain.Actor, error) {
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		return domain.Actor{}, fmt.Errorf("identity: response missing actor id")
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(payload.Role)))
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.Actor{}, fmt.Errorf("identity: unknown role %q", payload.Role)
	}
	return domain.Actor{ID: id, Role: role}, nil
}
