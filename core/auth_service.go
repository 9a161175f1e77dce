package core

import (
	"context"
	"errors"
	"strings"
)

// AuthService implements registration and credential login on top of the
// user repository and token service.
type AuthService struct {
	users  UserRepository
	tokens *TokenService
}

func NewAuthService(users UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a user and issues their first bearer token. Username
// defaults to the email address when blank.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(username) == "" {
		username = email
	}

	user, err := s.users.Create(ctx, &UserRecord{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return "", err
	}

	return s.tokens.IssueToken(ctx, user.ID)
}

// Login verifies basic credentials and issues a fresh token. An unknown
// username reads the same as a wrong password so existence does not leak.
func (s *AuthService) Login(ctx context.Context, creds BasicCredentials) (string, error) {
	user, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := VerifyPassword(creds.Password, user.PasswordHash); err != nil {
		return "", err
	}

	return s.tokens.IssueToken(ctx, user.ID)
}
