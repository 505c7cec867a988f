// internal/domain/plan/dto.go
package plan

import "github.com/shopspring/decimal"

type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required,max=140"`
	Description string `json:"description"`

	PriceMonthly decimal.Decimal `json:"price_monthly"`
	PriceYearly  decimal.Decimal `json:"price_yearly"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`

	Features           []string `json:"features"`
	MaxHabits          int      `json:"max_habits"`
	MaxGoals           int      `json:"max_goals"`
	HasStatistics      bool     `json:"has_statistics"`
	HasExport          bool     `json:"has_export"`
	HasPrioritySupport bool     `json:"has_priority_support"`

	IsActive *bool `json:"is_active"`
}

type UpdatePlanRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=140"`
	Description *string `json:"description"`

	PriceMonthly *decimal.Decimal `json:"price_monthly"`
	PriceYearly  *decimal.Decimal `json:"price_yearly"`
	Currency     *string          `json:"currency" binding:"omitempty,len=3"`

	Features           []string `json:"features"`
	MaxHabits          *int     `json:"max_habits"`
	MaxGoals           *int     `json:"max_goals"`
	HasStatistics      *bool    `json:"has_statistics"`
	HasExport          *bool    `json:"has_export"`
	HasPrioritySupport *bool    `json:"has_priority_support"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ListFilters struct {
	IsActive *bool  `form:"is_active"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListResponse struct {
	Plans      []SubscriptionPlan `json:"plans"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// SaveResult is returned by create and update. Notices are advisory.
type SaveResult struct {
	Plan    *SubscriptionPlan `json:"plan"`
	Notices []string          `json:"notices,omitempty"`
}
