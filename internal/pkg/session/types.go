// internal/pkg/session/types.go
package session

import "time"

// SessionData is what Redis keeps for a logged-in operator. Its key expires
// with the access token.
type SessionData struct {
	JTI            string    `json:"jti"`
	OperatorID     int64     `json:"operator_id"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
