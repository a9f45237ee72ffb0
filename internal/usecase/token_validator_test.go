//go:build unit

package usecase_test

import (
	"testing"
	"time"

	"rental-settlement/internal/domain/user"
	"rental-settlement/internal/pkg/jwt"
	"rental-settlement/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidator(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour)
	validator := usecase.NewTokenValidator(svc)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, user.RoleMember)
	require.NoError(t, err)

	gotID, role, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, user.RoleMember, role)

	t.Run("unknown role in claims is rejected", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, user.Role("superuser"))
		require.NoError(t, err)

		_, _, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	})
}

func TestTokenValidator_Rejects(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour)
	validator := usecase.NewTokenValidator(svc)

	t.Run("nil user id", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.Nil, user.RoleMember)
		require.NoError(t, err)

		_, _, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, usecase.ErrAnonymousToken)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := jwt.NewService("other", time.Hour).GenerateToken(uuid.New(), user.RoleMember)
		require.NoError(t, err)

		_, _, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
