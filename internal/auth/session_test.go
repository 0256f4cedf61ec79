package auth

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	store, mr := newSessions(t)
	ctx := context.Background()
	id := Identity{ID: "a1", Email: "owner@petalandstem.example", Name: "Owner"}

	token, err := store.Create(ctx, id)
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, time.Hour, mr.TTL("session:"+token))

	got, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, store.Delete(ctx, token))
	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionLookupMisses(t *testing.T) {
	store, mr := newSessions(t)
	ctx := context.Background()

	_, err := store.Lookup(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, mr.Set("session:garbled", "not json"))
	_, err = store.Lookup(ctx, "garbled")
	assert.ErrorIs(t, err, ErrNoSession)

	token, err := store.Create(ctx, Identity{ID: "a1"})
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)
	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDeleteFor(t *testing.T) {
	store, _ := newSessions(t)
	ctx := context.Background()

	t1, err := store.Create(ctx, Identity{ID: "a1"})
	require.NoError(t, err)
	t2, err := store.Create(ctx, Identity{ID: "a1"})
	require.NoError(t, err)
	other, err := store.Create(ctx, Identity{ID: "a2"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteFor(ctx, "a1"))

	for _, tok := range []string{t1, t2} {
		_, err := store.Lookup(ctx, tok)
		assert.ErrorIs(t, err, ErrNoSession)
	}
	_, err = store.Lookup(ctx, other)
	assert.NoError(t, err)
}
