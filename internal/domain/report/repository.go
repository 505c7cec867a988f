// internal/domain/report/repository.go
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository runs the aggregate queries behind dashboards and exports.
type Repository interface {
	// CountCustomers counts all customers, or those created at or after since.
	CountCustomers(ctx context.Context, since *time.Time) (int64, error)
	// Active aggregates skip subscriptions that end before asOf; those are
	// Expired once reconciled.
	CountActiveSubscriptions(ctx context.Context, asOf time.Time) (int64, error)
	CountSubscriptionsCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountCancelledSince(ctx context.Context, since time.Time) (int64, error)
	ActivePlanBreakdown(ctx context.Context, asOf time.Time) ([]PlanBreakdownRow, error)
	// SumCompletedPayments sums completed payments dated in [from, to).
	SumCompletedPayments(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	ExportCustomers(ctx context.Context, r DateRange) ([]CustomerRow, error)
	ExportSubscriptions(ctx context.Context, r DateRange) ([]SubscriptionRow, error)
	ExportPayments(ctx context.Context, r DateRange) ([]PaymentRow, error)
	ExportMonthlyRevenue(ctx context.Context, r DateRange) ([]MonthlyRevenueRow, error)
}
