//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"rental-settlement/internal/domain/user"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// JWTHelper mints tokens the way the identity provider would, signed with
// the service's configured secret.
type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	duration, err := h.cfg.TokenDuration()
	require.NoError(t, err)
	return h.sign(t, duration, userID, role)
}

// CreateExpiredToken returns a token whose expiry has already passed.
func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	return h.sign(t, -time.Minute, userID, role)
}

func (h *JWTHelper) sign(t *testing.T, d time.Duration, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, d).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}
