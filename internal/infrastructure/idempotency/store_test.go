package idempotency

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	replay, err := s.AcquireKey(ctx, "k1", "POST /api/v1/issuances", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "POST /api/v1/issuances", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyConflict))

	require.NoError(t, s.CompleteKey(ctx, "k1", http.StatusCreated, "application/json", map[string]string{"id": "x"}))

	replay, err = s.AcquireKey(ctx, "k1", "POST /api/v1/issuances", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.JSONEq(t, `{"id":"x"}`, string(replay.Body))

	_, err = s.AcquireKey(ctx, "k1", "POST /api/v1/issuances", "h2")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyMismatch))
}

func TestMemoryStore_ReclaimsStaleAndExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(10 * time.Minute)
	s.now = func() time.Time { return now }

	_, err := s.AcquireKey(ctx, "k", "op", "h")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	replay, err := s.AcquireKey(ctx, "k", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)

	require.NoError(t, s.FailKey(ctx, "k", http.StatusUnprocessableEntity, "", nil))
	replay, err = s.AcquireKey(ctx, "k", "op", "h")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)

	now = now.Add(time.Hour)
	replay, err = s.AcquireKey(ctx, "k", "other", "h2")
	require.NoError(t, err)
	assert.Nil(t, replay)
}
