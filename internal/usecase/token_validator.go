package usecase

import (
	"rental-settlement/internal/domain/user"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/pkg/jwt"

	"github.com/google/uuid"
)

var ErrAnonymousToken = errs.New("token carries no user id")

// TokenValidator turns a bearer token from the identity provider into the
// caller's id and platform role.
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, user.Role, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (uuid.UUID, user.Role, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", errs.Wrap(err, "validate token")
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, "", ErrAnonymousToken
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return uuid.Nil, "", errs.Wrapf(err, "token role %q", claims.Role)
	}

	return claims.UserID, role, nil
}
