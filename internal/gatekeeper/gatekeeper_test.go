package gatekeeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/order"
)

// memStore is an in-memory TokenStore with expiry, standing in for redis.
type memStore struct {
	mu     sync.Mutex
	tokens map[string]memEntry
}

type memEntry struct {
	actor   order.Actor
	expires time.Time
}

func newMemStore() *memStore {
	return &memStore{tokens: make(map[string]memEntry)}
}

func (s *memStore) Put(_ context.Context, token string, actor order.Actor, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memEntry{actor: actor, expires: time.Now().Add(ttl)}
	return nil
}

func (s *memStore) Get(_ context.Context, token string) (order.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tokens[token]
	if !ok || time.Now().After(e.expires) {
		return order.Actor{}, ErrInvalidToken
	}
	return e.actor, nil
}

func (s *memStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	gk := New(newMemStore(), time.Hour)
	ctx := context.Background()

	for _, role := range []order.Role{order.RoleCustomer, order.RoleAdmin, order.RoleCourier} {
		token, err := gk.Issue(ctx, order.Actor{ID: "id-" + string(role), Role: role})
		require.NoError(t, err)
		require.NotEmpty(t, token)

		actor, err := gk.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, role, actor.Role)
		assert.Equal(t, "id-"+string(role), actor.ID)
	}
}

func TestVerifyRejectsUnknownAndEmptyTokens(t *testing.T) {
	gk := New(newMemStore(), time.Hour)

	_, err := gk.Verify(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = gk.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreUnpredictablyDistinct(t *testing.T) {
	gk := New(newMemStore(), time.Hour)
	ctx := context.Background()

	t1, err := gk.Issue(ctx, order.Actor{ID: "c1", Role: order.RoleCustomer})
	require.NoError(t, err)
	t2, err := gk.Issue(ctx, order.Actor{ID: "c1", Role: order.RoleCustomer})
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
	assert.Len(t, t1, 64) // 32 random bytes, hex encoded
}

func TestRevoke(t *testing.T) {
	gk := New(newMemStore(), time.Hour)
	ctx := context.Background()

	token, err := gk.Issue(ctx, order.Actor{ID: "c1", Role: order.RoleCustomer})
	require.NoError(t, err)
	require.NoError(t, gk.Revoke(ctx, token))

	_, err = gk.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	gk := New(newMemStore(), -time.Second)

	token, err := gk.Issue(context.Background(), order.Actor{ID: "c1", Role: order.RoleCustomer})
	require.NoError(t, err)

	_, err = gk.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
