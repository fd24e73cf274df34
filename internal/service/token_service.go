package service

import (
	"chatline-server/internal/config"
	"chatline-server/internal/domain"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// accessClaims is the JWT payload of an access token.
type accessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.AccessTokenSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Issue signs a new access token for the given user.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a bearer token and returns the user ID it was issued for.
// Any parse, signature, or expiry failure maps to ErrUnauthorized.
func (s *TokenService) Verify(tokenString string) (uuid.UUID, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return userID, nil
}
