// Package gatekeeper issues and verifies the opaque bearer tokens that
// authenticate the three actor roles. The ledger never sees credentials;
// it trusts the verified Actor the middleware attaches to the request
// context.
package gatekeeper

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

// ErrInvalidToken covers missing, expired, and unknown tokens alike — the
// caller learns nothing about which.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenStore persists token -> actor bindings with a TTL. The redis
// implementation is the production one; tests use an in-memory map.
type TokenStore interface {
	Put(ctx context.Context, token string, actor order.Actor, ttl time.Duration) error
	Get(ctx context.Context, token string) (order.Actor, error)
	Delete(ctx context.Context, token string) error
}

// Gatekeeper is the credential check shared by all three actor roles; the
// role travels inside the stored Actor.
type Gatekeeper struct {
	store TokenStore
	ttl   time.Duration
}

func New(store TokenStore, ttl time.Duration) *Gatekeeper {
	return &Gatekeeper{store: store, ttl: ttl}
}

// Issue mints an opaque token for an already-authenticated actor.
func (g *Gatekeeper) Issue(ctx context.Context, actor order.Actor) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("gatekeeper: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := g.store.Put(ctx, token, actor, g.ttl); err != nil {
		return "", fmt.Errorf("gatekeeper: store token: %w", err)
	}
	return token, nil
}

// Verify resolves a bearer token to its actor identity.
func (g *Gatekeeper) Verify(ctx context.Context, token string) (order.Actor, error) {
	if token == "" {
		return order.Actor{}, ErrInvalidToken
	}
	return g.store.Get(ctx, token)
}

// Revoke invalidates a token (logout).
func (g *Gatekeeper) Revoke(ctx context.Context, token string) error {
	return g.store.Delete(ctx, token)
}
