package auth

import (
	"testing"
	"time"

	"github.com/erp/salesimport/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-32ch",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "salesimport-test",
	}
}

func TestJWTService_GenerateToken(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(userID, "importer")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	userID := uuid.New()

	t.Run("round trips claims", func(t *testing.T) {
		token, _, err := svc.GenerateToken(userID, "importer")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "importer", claims.Username)

		parsed, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, parsed)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-entirely-for-tests",
			AccessTokenExpiration: time.Minute,
			Issuer:                "other",
		})
		token, _, err := other.GenerateToken(userID, "importer")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                testJWTConfig().Secret,
			AccessTokenExpiration: -time.Minute,
			Issuer:                "salesimport-test",
		})
		token, _, err := expired.GenerateToken(userID, "importer")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}
