package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs the session id into the cookie/bearer value so that
// tampered ids are rejected before the session store is consulted. The token
// carries no identity; the session is the source of truth.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a new token service with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
	}
}

// Secret exposes the signing key for the echo-jwt middleware.
func (s *TokenService) Secret() []byte {
	return s.secret
}

// Issue signs a token whose jti is the session id.
func (s *TokenService) Issue(sess *Session) (string, error) {
	claims := &jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sess.Claim.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		NotBefore: jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token and returns the session id it carries.
func (s *TokenService) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(time.Now),
	)
	if err != nil {
		return "", err
	}
	return SessionIDFromToken(token)
}

func (s *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

// SessionIDFromToken extracts the session id from a parsed token.
func SessionIDFromToken(token *jwt.Token) (string, error) {
	if token == nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return "", errors.New("session id not found")
	}
	return claims.ID, nil
}
