package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"carsapp-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the default token lifetime.
const DefaultTokenTTL = 30 * time.Hour

// Claims is the signed token payload: {userId, iat, exp}.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed session tokens.
// It is the only holder of the signing secret.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a token service. An empty secret is rejected so
// the process cannot start without one.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		key: []byte(secret),
		ttl: ttl,
		now: time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// TTL returns the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for userID that expires TTL from now.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", ErrInternal, err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(token string) (model.Identity, error) {
	info, err := s.Inspect(token)
	if err != nil {
		return model.Identity{}, err
	}
	return info.Identity, nil
}

// Inspect is Verify plus the token's timestamps.
func (s *TokenService) Inspect(token string) (*model.TokenInfo, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		log.Printf("[TokenService] Token rejected: %v", err)
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	info := &model.TokenInfo{
		Identity:  model.Identity{UserID: claims.UserID},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
