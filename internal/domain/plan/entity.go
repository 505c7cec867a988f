// internal/domain/plan/entity.go
package plan

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const YearlyPricingNotice = "Yearly price per month is higher than monthly price. Consider offering a discount for yearly plans."

type SubscriptionPlan struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description sql.NullString `json:"description,omitempty" db:"description"`

	// Pricing
	PriceMonthly decimal.Decimal `json:"price_monthly" db:"price_monthly"`
	PriceYearly  decimal.Decimal `json:"price_yearly" db:"price_yearly"`
	Currency     string          `json:"currency" db:"currency"`

	// Features and limits
	Features           pq.StringArray `json:"features" db:"features"`
	MaxHabits          int            `json:"max_habits" db:"max_habits"`
	MaxGoals           int            `json:"max_goals" db:"max_goals"`
	HasStatistics      bool           `json:"has_statistics" db:"has_statistics"`
	HasExport          bool           `json:"has_export" db:"has_export"`
	HasPrioritySupport bool           `json:"has_priority_support" db:"has_priority_support"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks prices and limits. It returns advisory notices that do not
// block the edit.
func (p *SubscriptionPlan) Validate() ([]string, error) {
	if p.Name == "" {
		return nil, errValidation("plan name is required")
	}
	if p.PriceMonthly.IsNegative() {
		return nil, errValidation("monthly price cannot be negative")
	}
	if p.PriceYearly.IsNegative() {
		return nil, errValidation("yearly price cannot be negative")
	}
	if p.MaxHabits < 0 {
		return nil, errValidation("max habits cannot be negative")
	}
	if p.MaxGoals < 0 {
		return nil, errValidation("max goals cannot be negative")
	}

	var notices []string
	if p.PriceMonthly.IsPositive() && p.PriceYearly.IsPositive() &&
		p.YearlyMonthlyEquivalent().GreaterThan(p.PriceMonthly) {
		notices = append(notices, YearlyPricingNotice)
	}
	return notices, nil
}

// YearlyMonthlyEquivalent is the yearly price spread over twelve months.
func (p *SubscriptionPlan) YearlyMonthlyEquivalent() decimal.Decimal {
	return p.PriceYearly.Div(decimal.NewFromInt(12))
}

// Limits is the public view of what a plan grants.
type Limits struct {
	Name               string   `json:"name"`
	Features           []string `json:"features"`
	MaxHabits          int      `json:"max_habits"`
	MaxGoals           int      `json:"max_goals"`
	HasStatistics      bool     `json:"has_statistics"`
	HasExport          bool     `json:"has_export"`
	HasPrioritySupport bool     `json:"has_priority_support"`
}

func (p *SubscriptionPlan) Limits() Limits {
	features := []string(p.Features)
	if features == nil {
		features = []string{}
	}
	return Limits{
		Name:               p.Name,
		Features:           features,
		MaxHabits:          p.MaxHabits,
		MaxGoals:           p.MaxGoals,
		HasStatistics:      p.HasStatistics,
		HasExport:          p.HasExport,
		HasPrioritySupport: p.HasPrioritySupport,
	}
}
