package core

import (
	"encoding/base64"
	"strings"

	"github.com/gin-gonic/gin"
)

// BasicCredentials is a request-scoped plaintext credential pair parsed from
// the Authorization header. It is never persisted.
type BasicCredentials struct {
	Username string
	Password string
}

// AuthenticatedUser is the resolved identity after bearer verification.
type AuthenticatedUser struct {
	UserID string
}

// Context keys for values attached by the auth middlewares. Handlers read
// them through the typed accessors below, never directly.
const (
	basicCredsKey = "tableaux.basicCredentials"
	authUserKey   = "tableaux.authenticatedUser"
)

// CredentialsFrom returns the BasicCredentials attached by BasicAuth.
func CredentialsFrom(c *gin.Context) (BasicCredentials, bool) {
	v, ok := c.Get(basicCredsKey)
	if !ok {
		return BasicCredentials{}, false
	}
	creds, ok := v.(BasicCredentials)
	return creds, ok
}

// UserFrom returns the AuthenticatedUser attached by BearerAuth.
func UserFrom(c *gin.Context) (AuthenticatedUser, bool) {
	v, ok := c.Get(authUserKey)
	if !ok {
		return AuthenticatedUser{}, false
	}
	user, ok := v.(AuthenticatedUser)
	return user, ok
}

// BasicAuth parses `Authorization: Basic <base64(username:password)>` and
// attaches the credential pair to the request context. It never touches the
// user store; the login handler combines it with lookup and verification.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := ParseBasicHeader(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, err)
			c.Abort()
			return
		}
		c.Set(basicCredsKey, creds)
		c.Next()
	}
}

// ParseBasicHeader applies the basic-credential extraction ladder: missing
// header, malformed scheme, empty username, empty password, in that order.
func ParseBasicHeader(header string) (BasicCredentials, error) {
	if header == "" {
		return BasicCredentials{}, ErrMissingAuthHeader
	}

	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok || encoded == "" {
		return BasicCredentials{}, ErrMissingCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return BasicCredentials{}, ErrMissingCredentials
	}

	username, password, _ := strings.Cut(string(decoded), ":")
	if username == "" {
		return BasicCredentials{}, ErrMissingUsername
	}
	if password == "" {
		return BasicCredentials{}, ErrMissingPassword
	}

	return BasicCredentials{Username: username, Password: password}, nil
}

// BearerAuth extracts `Authorization: Bearer <token>`, verifies it with the
// token service, and attaches the resolved identity to the request context.
func BearerAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			respondWithError(c, ErrMissingToken)
			c.Abort()
			return
		}

		user, err := tokens.ResolveToken(c.Request.Context(), raw)
		if err != nil {
			respondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(authUserKey, AuthenticatedUser{UserID: user.ID})
		c.Next()
	}
}

// Authorize is the ownership guard: the requester may only act on resources
// they own. Callers must resolve the resource first so a lookup miss stays a
// 404 and does not leak through the ownership verdict.
func Authorize(authenticatedUserID, resourceOwnerID string) error {
	if authenticatedUserID != resourceOwnerID {
		return ErrNotOwner
	}
	return nil
}
