//go:build unit

package jwt

import (
	"testing"
	"time"

	"rental-settlement/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	svc := NewService("secret", time.Hour)
	userID := uuid.New()

	t.Run("round trip keeps user and role", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, user.RolePlatformAdmin)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "platform_admin", claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.generateAt(time.Now().Add(-2*time.Hour), userID, user.RoleMember)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := NewService("other", time.Hour).GenerateToken(userID, user.RoleMember)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
