package testutil

import (
	"context"
	"sort"
	"time"

	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/report"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ReportStore answers report.Repository from the in-memory tables.
type ReportStore struct{ s *Store }

var _ report.Repository = (*ReportStore)(nil)

func (r *ReportStore) CountCustomers(_ context.Context, since *time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.customers.rows {
		if since == nil || !c.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (r *ReportStore) CountActiveSubscriptions(_ context.Context, asOf time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := clock.Date(asOf)
	return int64(lo.CountBy(r.s.subscriptions.ordered(), func(s subscription.Subscription) bool {
		return activeOn(s, day)
	})), nil
}

func activeOn(s subscription.Subscription, day time.Time) bool {
	return s.Status == subscription.StatusActive && !s.EndDate.Before(day)
}

func (r *ReportStore) CountSubscriptionsCreatedSince(_ context.Context, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(lo.CountBy(r.s.subscriptions.ordered(), func(s subscription.Subscription) bool {
		return !s.CreatedAt.Before(since)
	})), nil
}

func (r *ReportStore) CountCancelledSince(_ context.Context, since time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := clock.Date(since)
	return int64(lo.CountBy(r.s.subscriptions.ordered(), func(s subscription.Subscription) bool {
		return s.Status == subscription.StatusCancelled && s.CancellationDate.Valid && !s.CancellationDate.Time.Before(day)
	})), nil
}

func (r *ReportStore) ActivePlanBreakdown(_ context.Context, asOf time.Time) ([]report.PlanBreakdownRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := clock.Date(asOf)

	type key struct {
		planID int64
		cycle  subscription.BillingCycle
	}
	counts := map[key]int64{}
	for _, s := range r.s.subscriptions.rows {
		if activeOn(s, day) {
			counts[key{s.PlanID, s.BillingCycle}]++
		}
	}

	rows := make([]report.PlanBreakdownRow, 0, len(counts))
	for k, n := range counts {
		p := r.s.plans.rows[k.planID]
		rows = append(rows, report.PlanBreakdownRow{
			PlanID:        k.planID,
			PlanName:      p.Name,
			BillingCycle:  string(k.cycle),
			Subscriptions: n,
			PriceMonthly:  p.PriceMonthly,
			PriceYearly:   p.PriceYearly,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlanName == rows[j].PlanName {
			return rows[i].BillingCycle < rows[j].BillingCycle
		}
		return rows[i].PlanName < rows[j].PlanName
	})
	return rows, nil
}

func (r *ReportStore) SumCompletedPayments(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.s.payments.rows {
		if p.Status == payment.StatusCompleted && !p.PaymentDate.Before(from) && p.PaymentDate.Before(to) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// inRange compares calendar days; both ends are inclusive.
func inRange(t time.Time, rg report.DateRange) bool {
	d := clock.Date(t)
	if rg.From != nil && d.Before(clock.Date(*rg.From)) {
		return false
	}
	if rg.To != nil && d.After(clock.Date(*rg.To)) {
		return false
	}
	return true
}

func (r *ReportStore) ExportCustomers(_ context.Context, rg report.DateRange) ([]report.CustomerRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []report.CustomerRow{}
	for _, c := range lo.Reverse(r.s.customers.ordered()) {
		if !inRange(c.CreatedAt, rg) {
			continue
		}
		out = append(out, report.CustomerRow{
			ID:        c.ID,
			Reference: c.Reference,
			FullName:  c.FullName,
			Email:     c.Email,
			Phone:     c.Phone.String,
			Company:   c.Company.String,
			CreatedAt: c.CreatedAt,
		})
	}
	return out, nil
}

func (r *ReportStore) ExportSubscriptions(_ context.Context, rg report.DateRange) ([]report.SubscriptionRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []report.SubscriptionRow{}
	for _, s := range lo.Reverse(r.s.subscriptions.ordered()) {
		if rg.From != nil && s.StartDate.Before(clock.Date(*rg.From)) {
			continue
		}
		if rg.To != nil && s.EndDate.After(clock.Date(*rg.To)) {
			continue
		}
		c := r.s.customers.rows[s.CustomerID]
		out = append(out, report.SubscriptionRow{
			ID:                 s.ID,
			Reference:          s.Reference,
			CustomerName:       c.FullName,
			CustomerEmail:      c.Email,
			PlanName:           r.s.plans.rows[s.PlanID].Name,
			Status:             string(s.Status),
			BillingCycle:       string(s.BillingCycle),
			StartDate:          s.StartDate,
			EndDate:            s.EndDate,
			CancellationReason: s.CancellationReason.String,
		})
	}
	return out, nil
}

func (r *ReportStore) ExportPayments(_ context.Context, rg report.DateRange) ([]report.PaymentRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := lo.Filter(r.s.payments.ordered(), func(p payment.Payment, _ int) bool { return inRange(p.PaymentDate, rg) })
	sortByPaymentDateDesc(rows)

	out := make([]report.PaymentRow, 0, len(rows))
	for _, p := range rows {
		c := r.s.customers.rows[p.CustomerID]
		out = append(out, report.PaymentRow{
			ID:            p.ID,
			Reference:     p.Reference,
			CustomerName:  c.FullName,
			CustomerEmail: c.Email,
			Amount:        p.Amount,
			Currency:      p.Currency,
			PaymentDate:   p.PaymentDate,
			Method:        string(p.Method),
			Status:        string(p.Status),
			TransactionID: p.TransactionID,
		})
	}
	return out, nil
}

func (r *ReportStore) ExportMonthlyRevenue(_ context.Context, rg report.DateRange) ([]report.MonthlyRevenueRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byMonth := map[string]*report.MonthlyRevenueRow{}
	for _, p := range r.s.payments.rows {
		if p.Status != payment.StatusCompleted || !inRange(p.PaymentDate, rg) {
			continue
		}
		m := p.PaymentDate.UTC().Format("2006-01")
		row, ok := byMonth[m]
		if !ok {
			row = &report.MonthlyRevenueRow{Month: m, TotalRevenue: decimal.Zero}
			byMonth[m] = row
		}
		row.TotalRevenue = row.TotalRevenue.Add(p.Amount)
		row.PaymentCount++
	}

	months := lo.Keys(byMonth)
	sort.Strings(months)
	out := make([]report.MonthlyRevenueRow, 0, len(months))
	for _, m := range months {
		out = append(out, *byMonth[m])
	}
	return out, nil
}
