package core

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost matches the original deployment; raising it invalidates no
// stored hashes but slows login.
const passwordCost = 10

// HashPassword computes a salted bcrypt hash of the plaintext password.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext against a stored hash. A mismatch is an
// expected outcome and reports ErrInvalidCredentials, not a generic fault.
func VerifyPassword(plaintext, passwordHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	// Malformed stored hash etc. still reads as a credential failure to the
	// client, but keeps the cause for the logs.
	return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
}
