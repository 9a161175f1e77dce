package core

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sentinel errors returned by the auth core. Callers match with errors.Is;
// the HTTP boundary maps them to a status via respondWithError.
var (
	// Credential / token problems (401).
	ErrMissingAuthHeader  = errors.New("authorization header required")
	ErrMissingCredentials = errors.New("username and password required")
	ErrMissingUsername    = errors.New("username required")
	ErrMissingPassword    = errors.New("password required")
	ErrMissingToken       = errors.New("bearer token required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotOwner is the ownership guard verdict for a resource owned by
	// somebody else. The original API reports this as 401, not 403.
	ErrNotOwner = errors.New("resource owned by another user")

	// Resource / persistence problems.
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already taken")
	ErrPersistence     = errors.New("persistence failure")
	ErrHashing         = errors.New("password hashing failure")
	ErrTooManyRequests = errors.New("too many requests")
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondWithError maps a core sentinel error onto its HTTP status and code.
// Unrecognized errors surface as 500 without leaking their message.
func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingAuthHeader):
		respondError(c, http.StatusUnauthorized, "MISSING_HEADER", "Authorization header required!")
	case errors.Is(err, ErrMissingCredentials):
		respondError(c, http.StatusUnauthorized, "MISSING_CREDENTIALS", "Username and Password required!")
	case errors.Is(err, ErrMissingUsername):
		respondError(c, http.StatusUnauthorized, "MISSING_USERNAME", "Username required!")
	case errors.Is(err, ErrMissingPassword):
		respondError(c, http.StatusUnauthorized, "MISSING_PASSWORD", "Password required!")
	case errors.Is(err, ErrMissingToken):
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Bearer token required!")
	case errors.Is(err, ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
	case errors.Is(err, ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, ErrNotOwner):
		respondError(c, http.StatusUnauthorized, "INVALID_USER", "invalid user")
	case errors.Is(err, ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, ErrConflict):
		respondError(c, http.StatusConflict, "CONFLICT", "already taken")
	case errors.Is(err, ErrTooManyRequests):
		respondError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many login attempts")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
	}
}
