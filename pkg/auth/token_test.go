package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	token, err := manager.Issue(userID)
	require.NoError(t, err)

	identity, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
}

func TestTokenVerifyFailures(t *testing.T) {
	manager := NewTokenManager([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager([]byte("test-secret"), -time.Minute)
		token, err := expired.Issue(userID)
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager([]byte("other-secret"), time.Hour)
		token, err := other.Issue(userID)
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, VerifyPassword(hash, "tr0ub4dor&3"), ErrPasswordMismatch)
}
