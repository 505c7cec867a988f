// internal/pkg/jwt/claims.go
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
)

const PurposeAccess = "access"

// Claims carried by an operator access token
type Claims struct {
	OperatorID int64    `json:"operator_id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles,omitempty"`
	Purpose    string   `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool {
	return lo.Contains(c.Roles, role)
}

// Remaining is how long the token stays valid after now, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
