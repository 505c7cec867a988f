// internal/domain/report/entity.go
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeCustomers     Type = "customers"
	TypeSubscriptions Type = "subscriptions"
	TypePayments      Type = "payments"
	TypeRevenue       Type = "revenue"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCustomers, TypeSubscriptions, TypePayments, TypeRevenue:
		return true
	}
	return false
}

// DateRange bounds a report. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// PlanBreakdownRow aggregates Active subscriptions per plan and billing cycle.
type PlanBreakdownRow struct {
	PlanID        int64           `json:"plan_id"`
	PlanName      string          `json:"plan_name"`
	BillingCycle  string          `json:"billing_cycle"`
	Subscriptions int64           `json:"subscriptions"`
	PriceMonthly  decimal.Decimal `json:"price_monthly"`
	PriceYearly   decimal.Decimal `json:"price_yearly"`
}

// MonthlyRevenue is the recurring revenue this row contributes.
func (r PlanBreakdownRow) MonthlyRevenue() decimal.Decimal {
	unit := r.PriceMonthly
	if r.BillingCycle == "yearly" {
		unit = r.PriceYearly.Div(decimal.NewFromInt(12))
	}
	return unit.Mul(decimal.NewFromInt(r.Subscriptions))
}

type PlanRevenue struct {
	PlanName       string          `json:"plan_name"`
	Subscriptions  int64           `json:"subscriptions"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
}

type PlanCustomers struct {
	PlanName  string `json:"plan_name"`
	Customers int64  `json:"customers"`
}

type RevenuePoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardStats struct {
	TotalCustomers      int64           `json:"total_customers"`
	ActiveSubscriptions int64           `json:"active_subscriptions"`
	MRR                 decimal.Decimal `json:"mrr"`
	NewCustomersMonth   int64           `json:"new_customers_month"`
	ChurnRate           decimal.Decimal `json:"churn_rate"`
	RevenueByPlan       []PlanRevenue   `json:"revenue_by_plan"`
	CustomersByPlan     []PlanCustomers `json:"customers_by_plan"`
	RevenueTrend        []RevenuePoint  `json:"revenue_trend"`
}

type WeeklySummary struct {
	NewSubscriptions       int64           `json:"new_subscriptions"`
	CancelledSubscriptions int64           `json:"cancelled_subscriptions"`
	WeeklyRevenue          decimal.Decimal `json:"weekly_revenue"`
	PeriodStart            time.Time       `json:"period_start"`
	ReportDate             time.Time       `json:"report_date"`
}
