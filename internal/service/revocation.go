package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"carsapp-api/internal/cache"
)

const revokedKeyPrefix = "revoked:"

var revokedMarker = []byte("1")

// RevocationList is the set of tokens explicitly invalidated before their
// natural expiry. Membership is keyed by the exact token string.
//
// An entry is kept until the token's own expiry; after that the token
// fails verification anyway, so the backing cache is free to drop it.
type RevocationList struct {
	tokens *TokenService
	store  cache.Cache
}

// NewRevocationList creates a revocation list backed by store.
func NewRevocationList(tokens *TokenService, store cache.Cache) *RevocationList {
	return &RevocationList{
		tokens: tokens,
		store:  store,
	}
}

// Revoke adds token to the list. It returns ErrInvalidToken if the token
// does not verify (nothing is inserted) and ErrAlreadyRevoked if it is
// already present.
func (l *RevocationList) Revoke(ctx context.Context, token string) error {
	info, err := l.tokens.Inspect(token)
	if err != nil {
		return ErrInvalidToken
	}

	ttl := info.ExpiresAt.Sub(l.tokens.now())
	if ttl <= 0 {
		return ErrInvalidToken
	}
	// The cache clock may lag the token clock by a little; keep the entry
	// at least a second so it never lapses before the token does.
	ttl += time.Second

	stored, err := l.store.SetNX(ctx, revokedKeyPrefix+token, revokedMarker, ttl)
	if err != nil {
		return fmt.Errorf("%w: revoke token: %w", ErrInternal, err)
	}
	if !stored {
		return ErrAlreadyRevoked
	}

	log.Printf("[RevocationList] Revoked token for user_id=%s, expires=%v", info.Identity.UserID, info.ExpiresAt)
	return nil
}

// IsRevoked reports whether token is on the list.
func (l *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	ok, err := l.store.Exists(ctx, revokedKeyPrefix+token)
	if err != nil {
		return false, fmt.Errorf("%w: check revocation: %w", ErrInternal, err)
	}
	return ok, nil
}
