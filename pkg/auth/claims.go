package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims represents the JWT issued by the external identity
// provider. The subject is the provider's user identifier; roles are not
// carried in the token, they live on the local user record.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the external principal identifier.
func (c *AccessTokenClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
