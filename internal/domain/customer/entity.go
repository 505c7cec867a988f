// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Customer struct {
	ID        int64  `json:"id" db:"id"`
	Reference string `json:"reference" db:"reference"`

	FullName string         `json:"full_name" db:"full_name"`
	Email    string         `json:"email" db:"email"`
	Phone    sql.NullString `json:"phone,omitempty" db:"phone"`
	Company  sql.NullString `json:"company,omitempty" db:"company"`

	Notes sql.NullString `json:"notes,omitempty" db:"notes"`
	Tags  pq.StringArray `json:"tags,omitempty" db:"tags"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
