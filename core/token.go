package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// findHashRetries is the number of extra attempts after the initial one when
// the store reports a find-hash uniqueness conflict.
const findHashRetries = 3

// TokenService mints and validates bearer tokens. A token embeds the user's
// current find hash, so rotating the hash invalidates everything issued
// before; only the most recent token per user resolves.
type TokenService struct {
	users  UserRepository
	secret []byte
}

func NewTokenService(users UserRepository, secret []byte) *TokenService {
	return &TokenService{users: users, secret: secret}
}

// tokenClaims carries the find hash under the "token" claim, matching the
// wire format already issued to existing clients.
type tokenClaims struct {
	jwt.RegisteredClaims
	Token string `json:"token"`
}

// RegenerateFindHash persists a fresh random find hash for the user. A
// uniqueness conflict triggers a bounded retry; after the 4th failed attempt
// it gives up with ErrPersistence. Any other store failure propagates
// immediately.
func (s *TokenService) RegenerateFindHash(ctx context.Context, userID string) (string, error) {
	attempts := 0
	for {
		findHash, err := newFindHash()
		if err != nil {
			return "", err
		}

		err = s.users.UpdateFindHash(ctx, userID, findHash)
		if err == nil {
			return findHash, nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", err
		}

		attempts++
		if attempts > findHashRetries {
			return "", fmt.Errorf("%w: find hash regeneration exhausted retries: %v", ErrPersistence, err)
		}
	}
}

// IssueToken rotates the user's find hash and signs it into a bearer token.
// Tokens carry no expiry; rotation on the next issuance is the revocation
// mechanism.
func (s *TokenService) IssueToken(ctx context.Context, userID string) (string, error) {
	findHash, err := s.RegenerateFindHash(ctx, userID)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{Token: findHash})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the signature and extracts the embedded find hash.
func (s *TokenService) VerifyToken(tokenString string) (string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid || claims.Token == "" {
		return "", ErrInvalidToken
	}
	return claims.Token, nil
}

// ResolveToken verifies a token and resolves the embedded find hash to the
// user it was issued to. A hash that no longer matches any user means the
// token has been superseded.
func (s *TokenService) ResolveToken(ctx context.Context, tokenString string) (*UserRecord, error) {
	findHash, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByFindHash(ctx, findHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// newFindHash returns 32 cryptographically random bytes, hex encoded.
func newFindHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return hex.EncodeToString(b), nil
}
