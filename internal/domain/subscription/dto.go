// internal/domain/subscription/dto.go
package subscription

import (
	"time"

	"billing-service/internal/domain/plan"
)

type CreateSubscriptionRequest struct {
	CustomerID   int64        `json:"customer_id" binding:"required,min=1"`
	PlanID       int64        `json:"plan_id" binding:"required,min=1"`
	BillingCycle BillingCycle `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ChangePlanRequest struct {
	PlanID int64 `json:"plan_id" binding:"required,min=1"`
}

type ExtendSubscriptionRequest struct {
	Days int `json:"days" binding:"required,min=1,max=3650"`
}

type ListFilters struct {
	Status       *Status       `form:"status"`
	CustomerID   *int64        `form:"customer_id"`
	PlanID       *int64        `form:"plan_id"`
	BillingCycle *BillingCycle `form:"billing_cycle"`
	Page         int           `form:"page" binding:"omitempty,min=1"`
	PageSize     int           `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListItem is a subscription with its display fields.
type ListItem struct {
	Subscription
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	PlanName      string `json:"plan_name"`
}

type ListResponse struct {
	Subscriptions []ListItem `json:"subscriptions"`
	Total         int64      `json:"total"`
	Page          int        `json:"page"`
	PageSize      int        `json:"page_size"`
	TotalPages    int        `json:"total_pages"`
}

type ChangePlanResponse struct {
	Subscription *Subscription `json:"subscription"`
	OldPlan      string        `json:"old_plan"`
	NewPlan      string        `json:"new_plan"`
}

type ExtendResponse struct {
	Subscription *Subscription `json:"subscription"`
	NewEndDate   time.Time     `json:"new_end_date"`
}

// StatusResponse answers the public status check.
type StatusResponse struct {
	HasSubscription bool         `json:"has_subscription"`
	Status          Status       `json:"status,omitempty"`
	BillingCycle    BillingCycle `json:"billing_cycle,omitempty"`
	Plan            *plan.Limits `json:"plan,omitempty"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
}
