package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the bearer token payload.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, exp, iat, etc.)
	UserID               int64  `json:"userId"`
	Username             string `json:"username"`
	IsAdmin              bool   `json:"isAdmin"`
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// Principal returns the request-scoped identity carried by the claims.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Username: c.Username, IsAdmin: c.IsAdmin}
}
