// internal/domain/customer/dto.go
package customer

import (
	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
)

type CreateCustomerRequest struct {
	FullName string   `json:"full_name" binding:"required,max=140"`
	Email    string   `json:"email" binding:"required,email"`
	Phone    string   `json:"phone" binding:"omitempty,max=30"`
	Company  string   `json:"company" binding:"omitempty,max=140"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

type UpdateCustomerRequest struct {
	FullName *string  `json:"full_name" binding:"omitempty,max=140"`
	Email    *string  `json:"email" binding:"omitempty,email"`
	Phone    *string  `json:"phone" binding:"omitempty,max=30"`
	Company  *string  `json:"company" binding:"omitempty,max=140"`
	Notes    *string  `json:"notes"`
	Tags     []string `json:"tags"`
}

type ListFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListItem is a customer with the display fields of its active subscription.
type ListItem struct {
	Customer
	PlanName           string              `json:"plan_name,omitempty"`
	SubscriptionStatus subscription.Status `json:"subscription_status,omitempty"`
}

type ListResponse struct {
	Customers  []ListItem `json:"customers"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type CreateCustomerResponse struct {
	Customer     *Customer                  `json:"customer"`
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
}

// Details is the full back office view of one customer.
type Details struct {
	Customer       *Customer                  `json:"customer"`
	Subscription   *subscription.Subscription `json:"subscription,omitempty"`
	Plan           *plan.SubscriptionPlan     `json:"plan,omitempty"`
	RecentPayments []payment.Payment          `json:"recent_payments"`
}
