package usecase

import (
	"hostdash/internal/domain/user"
	"hostdash/internal/pkg/jwt"
)

// TokenValidator turns a bearer token into the principal every handler works with.
type TokenValidator interface {
	ValidateToken(tokenString string) (user.Principal, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (user.Principal, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return user.Principal{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return user.Principal{}, jwt.ErrInvalidToken
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return user.Principal{}, jwt.ErrInvalidToken
	}

	return user.Principal{UserID: userID, Role: role}, nil
}
