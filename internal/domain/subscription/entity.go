// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// Months is the length of one billing period.
func (c BillingCycle) Months() int {
	if c == CycleYearly {
		return 12
	}
	return 1
}

type Subscription struct {
	ID         int64  `json:"id" db:"id"`
	Reference  string `json:"reference" db:"reference"`
	CustomerID int64  `json:"customer_id" db:"customer_id"`
	PlanID     int64  `json:"plan_id" db:"plan_id"`

	Status       Status       `json:"status" db:"status"`
	BillingCycle BillingCycle `json:"billing_cycle" db:"billing_cycle"`

	// Calendar dates at midnight UTC
	StartDate       time.Time `json:"start_date" db:"start_date"`
	EndDate         time.Time `json:"end_date" db:"end_date"`
	NextBillingDate time.Time `json:"next_billing_date" db:"next_billing_date"`

	CancellationDate   sql.NullTime   `json:"cancellation_date,omitempty" db:"cancellation_date"`
	CancellationReason sql.NullString `json:"cancellation_reason,omitempty" db:"cancellation_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports the stored status without reconciling.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}
