// internal/domain/audit/entity.go
package audit

import (
	"database/sql"
	"time"
)

// Feature tags a usage log row.
type Feature string

const (
	FeatureStatusChange Feature = "subscription_status_change"
	FeaturePlanChange   Feature = "plan_change"
	FeatureExpiring     Feature = "subscription_expiring"
)

// UsageLog is an append-only audit row.
type UsageLog struct {
	ID             int64         `json:"id" db:"id"`
	CustomerID     int64         `json:"customer_id" db:"customer_id"`
	SubscriptionID sql.NullInt64 `json:"subscription_id,omitempty" db:"subscription_id"`
	Feature        Feature       `json:"feature" db:"feature"`
	Details        string        `json:"details" db:"details"`
	LogDate        time.Time     `json:"log_date" db:"log_date"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// Event is something that happened to a subscription. The state machine emits
// events; the audit writer decides where they are recorded.
type Event struct {
	Feature        Feature   `json:"feature"`
	CustomerID     int64     `json:"customer_id"`
	SubscriptionID int64     `json:"subscription_id"`
	From           string    `json:"from,omitempty"`
	To             string    `json:"to,omitempty"`
	Details        string    `json:"details"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// UsageLog converts the event into the row that records it.
func (e Event) UsageLog() *UsageLog {
	l := &UsageLog{
		CustomerID: e.CustomerID,
		Feature:    e.Feature,
		Details:    e.Details,
		LogDate:    e.OccurredAt,
	}
	if e.SubscriptionID != 0 {
		l.SubscriptionID = sql.NullInt64{Int64: e.SubscriptionID, Valid: true}
	}
	return l
}

type ListFilters struct {
	CustomerID *int64   `form:"customer_id"`
	Feature    *Feature `form:"feature"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	PageSize   int      `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListResponse struct {
	Logs       []UsageLog `json:"logs"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
