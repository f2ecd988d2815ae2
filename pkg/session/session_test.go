package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openequip/dealerkit/pkg/session"
)

func TestSessionData(t *testing.T) {
	t.Parallel()

	t.Run("int64 survives json round trip", func(t *testing.T) {
		t.Parallel()

		s := &session.Session{
			ID:        uuid.New(),
			Token:     "tok",
			Data:      map[string]any{session.KeyOrganizationID: int64(7)},
			ExpiresAt: time.Now().Add(time.Hour),
		}

		payload, err := json.Marshal(s)
		require.NoError(t, err)

		var restored session.Session
		require.NoError(t, json.Unmarshal(payload, &restored))

		// JSON decodes numbers as float64; the getter must normalize.
		id, ok := restored.GetInt64(session.KeyOrganizationID)
		require.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("missing and mistyped keys", func(t *testing.T) {
		t.Parallel()

		s := &session.Session{Data: map[string]any{"name": "acme"}}
		_, ok := s.GetInt64("missing")
		assert.False(t, ok)
		_, ok = s.GetInt64("name")
		assert.False(t, ok)

		name, ok := s.GetString("name")
		require.True(t, ok)
		assert.Equal(t, "acme", name)
	})

	t.Run("unset removes key", func(t *testing.T) {
		t.Parallel()

		s := &session.Session{}
		s.Set(session.KeyImpersonationOrigin, int64(1))
		s.Unset(session.KeyImpersonationOrigin)
		_, ok := s.GetInt64(session.KeyImpersonationOrigin)
		assert.False(t, ok)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("expired session is rejected", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		s := &session.Session{Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)}
		require.NoError(t, store.Create(ctx, s))

		_, err := store.Get(ctx, "tok")
		assert.ErrorIs(t, err, session.ErrExpired)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("update unknown token", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		err := store.Update(ctx, &session.Session{Token: "nope"})
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		assert.NoError(t, store.Delete(ctx, "nope"))
	})
}
