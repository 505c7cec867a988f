// internal/middleware/helpers.go
package middleware

import (
	"billing-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetOperatorID returns the authenticated operator's ID
func GetOperatorID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxOperatorID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustGetOperatorID gets the operator ID from context or panics
func MustGetOperatorID(c *gin.Context) int64 {
	id, exists := GetOperatorID(c)
	if !exists {
		panic("operator_id not found in context")
	}
	return id
}

// GetClaims returns the verified token claims
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func GetRoles(c *gin.Context) []string {
	v, exists := c.Get(ctxRoles)
	if !exists {
		return []string{}
	}
	roles, ok := v.([]string)
	if !ok {
		return []string{}
	}
	return roles
}

func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxOperatorID)
	return exists
}

func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin")
}
