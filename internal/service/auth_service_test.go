package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/redisclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewTokenIsOpaqueURLSafe(t *testing.T) {
	token, err := newToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := newToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestSessionRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	redis, err := redisclient.NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	defer redis.Close()

	svc := NewAuthService(nil, redis, time.Minute)
	ctx := context.Background()

	token, err := svc.startSession(ctx, &models.User{ID: 42, IsAdmin: false})
	require.NoError(t, err)

	sess, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sess.UserID)
	assert.False(t, sess.IsAdmin)

	_, err = svc.ValidateToken(ctx, "not-a-live-token")
	assert.ErrorIs(t, err, redisclient.ErrSessionNotFound)
}

func TestPasswordHashVerification(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter22")))
	assert.Error(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter23")))
}
