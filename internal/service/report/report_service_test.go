package report

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/report"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedBook builds a small ledger on 2024-06-15:
// a monthly and a yearly Pro subscription, one cancelled last week,
// and completed payments in January and June.
func seedBook(t *testing.T) (*ReportService, *testutil.Store) {
	t.Helper()
	clk := &clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	ctx := context.Background()

	pro := store.SeedPlan("Pro", 10, 120)
	ann := store.SeedCustomer("Ann", "ann@example.com")
	bob := store.SeedCustomer("Bob", "bob@example.com")
	cat := store.SeedCustomer("Cat", "cat@example.com")

	store.SeedSubscription(subscription.Subscription{
		Reference: "SUB-1", CustomerID: ann.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: day(2024, 6, 1), EndDate: day(2024, 7, 1), NextBillingDate: day(2024, 7, 1),
	})
	store.SeedSubscription(subscription.Subscription{
		Reference: "SUB-2", CustomerID: bob.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleYearly,
		StartDate: day(2024, 1, 1), EndDate: day(2025, 1, 1), NextBillingDate: day(2025, 1, 1),
	})
	store.SeedSubscription(subscription.Subscription{
		Reference: "SUB-3", CustomerID: cat.ID, PlanID: pro.ID, Status: subscription.StatusCancelled, BillingCycle: subscription.CycleMonthly,
		StartDate: day(2024, 5, 1), EndDate: day(2024, 6, 1), NextBillingDate: day(2024, 6, 1),
		CancellationDate: sql.NullTime{Time: day(2024, 6, 10), Valid: true},
	})

	pay := func(customerID int64, amount int64, date time.Time, status payment.Status) {
		require.NoError(t, store.Payments().Create(ctx, &payment.Payment{
			Reference: "PAY-" + date.Format("0102"), CustomerID: customerID, Amount: decimal.NewFromInt(amount),
			Currency: "USD", PaymentDate: date, Method: payment.MethodCard, Status: status,
		}))
	}
	pay(bob.ID, 20, day(2024, 1, 5), payment.StatusCompleted)
	pay(ann.ID, 10, day(2024, 6, 3), payment.StatusCompleted)
	pay(ann.ID, 5, time.Date(2024, 6, 14, 18, 30, 0, 0, time.UTC), payment.StatusCompleted)
	pay(cat.ID, 99, day(2024, 6, 12), payment.StatusFailed)

	return NewReportService(store.Reports(), clk, zap.NewNop()), store
}

func TestDashboardStats(t *testing.T) {
	svc, _ := seedBook(t)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalCustomers)
	assert.Equal(t, int64(3), stats.NewCustomersMonth)
	assert.Equal(t, int64(2), stats.ActiveSubscriptions)
	assert.Equal(t, "20", stats.MRR.String())
	assert.Equal(t, "33.33", stats.ChurnRate.String())

	require.Len(t, stats.RevenueByPlan, 1)
	assert.Equal(t, "Pro", stats.RevenueByPlan[0].PlanName)
	assert.Equal(t, int64(2), stats.CustomersByPlan[0].Customers)

	require.Len(t, stats.RevenueTrend, 6)
	assert.Equal(t, "Jan 2024", stats.RevenueTrend[0].Month)
	assert.Equal(t, "20", stats.RevenueTrend[0].Revenue.String())
	assert.Equal(t, "Jun 2024", stats.RevenueTrend[5].Month)
	assert.Equal(t, "15", stats.RevenueTrend[5].Revenue.String())
	assert.True(t, stats.RevenueTrend[2].Revenue.IsZero())
}

func TestDashboardStats_Empty(t *testing.T) {
	clk := &clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	svc := NewReportService(testutil.NewStore(clk).Reports(), clk, zap.NewNop())

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.ChurnRate.IsZero())
	assert.True(t, stats.MRR.IsZero())
	assert.Empty(t, stats.RevenueByPlan)
}

func TestDashboardStats_LapsedActiveNotCounted(t *testing.T) {
	clk := &clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	pro := store.SeedPlan("Pro", 10, 120)
	ann := store.SeedCustomer("Ann", "ann@example.com")
	// Not yet reconciled: still Active although it ended in May.
	store.SeedSubscription(subscription.Subscription{
		Reference: "SUB-1", CustomerID: ann.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: day(2024, 4, 1), EndDate: day(2024, 5, 1), NextBillingDate: day(2024, 5, 1),
	})
	svc := NewReportService(store.Reports(), clk, zap.NewNop())

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ActiveSubscriptions)
	assert.True(t, stats.MRR.IsZero())
	assert.Empty(t, stats.RevenueByPlan)
}

func TestDashboardStats_EndingTodayStillActive(t *testing.T) {
	clk := &clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	pro := store.SeedPlan("Pro", 10, 120)
	ann := store.SeedCustomer("Ann", "ann@example.com")
	store.SeedSubscription(subscription.Subscription{
		Reference: "SUB-1", CustomerID: ann.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: day(2024, 5, 15), EndDate: day(2024, 6, 15), NextBillingDate: day(2024, 6, 15),
	})
	svc := NewReportService(store.Reports(), clk, zap.NewNop())

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveSubscriptions)
	assert.Equal(t, "10", stats.MRR.String())
}

func TestWeeklySummary(t *testing.T) {
	svc, _ := seedBook(t)

	sum, err := svc.WeeklySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 8), sum.PeriodStart)
	assert.Equal(t, day(2024, 6, 15), sum.ReportDate)
	assert.Equal(t, int64(3), sum.NewSubscriptions)
	assert.Equal(t, int64(1), sum.CancelledSubscriptions)
	assert.Equal(t, "5", sum.WeeklyRevenue.String())
}

func TestExportReport(t *testing.T) {
	svc, _ := seedBook(t)
	ctx := context.Background()

	_, err := svc.ExportReport(ctx, &report.ExportRequest{Type: "invoices"})
	require.ErrorIs(t, err, xerrors.ErrValidation)
	assert.Equal(t, "invalid report type", xerrors.Message(err, ""))

	from, to := day(2024, 6, 1), day(2024, 6, 30)
	exp, err := svc.ExportReport(ctx, &report.ExportRequest{Type: report.TypePayments, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 3, exp.Count)

	exp, err = svc.ExportReport(ctx, &report.ExportRequest{Type: report.TypeRevenue})
	require.NoError(t, err)
	rows, ok := exp.Rows.([]report.MonthlyRevenueRow)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].Month)
	assert.Equal(t, "2024-06", rows[1].Month)
	assert.Equal(t, int64(2), rows[1].PaymentCount)

	exp, err = svc.ExportReport(ctx, &report.ExportRequest{Type: report.TypeSubscriptions, From: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.Count, "only subscriptions starting on or after the from date")

	_, err = svc.ExportReport(ctx, &report.ExportRequest{Type: report.TypeCustomers, From: &to, To: &from})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestRenderCSV(t *testing.T) {
	svc, _ := seedBook(t)

	exp, err := svc.ExportReport(context.Background(), &report.ExportRequest{Type: report.TypeRevenue, Format: "csv"})
	require.NoError(t, err)

	out, err := svc.RenderCSV(exp)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "month,total_revenue,payment_count", lines[0])
	assert.Equal(t, "2024-01,20,1", lines[1])
}
