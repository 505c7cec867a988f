// internal/repository/postgres/report_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"billing-service/internal/domain/report"

	"github.com/shopspring/decimal"
)

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var _ report.Repository = (*ReportRepository)(nil)

// ========== Counters ==========

func (r *ReportRepository) CountCustomers(ctx context.Context, since *time.Time) (int64, error) {
	w := &where{}
	if since != nil {
		w.add("created_at >= $%d", *since)
	}
	return r.count(ctx, "SELECT COUNT(*) FROM customers WHERE "+w.clause(), w.args...)
}

func (r *ReportRepository) CountActiveSubscriptions(ctx context.Context, asOf time.Time) (int64, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM subscriptions
		WHERE status = 'active' AND end_date >= $1::date`, asOf)
}

func (r *ReportRepository) CountSubscriptionsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE created_at >= $1`, since)
}

func (r *ReportRepository) CountCancelledSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM subscriptions
		WHERE status = 'cancelled' AND cancellation_date >= $1::date`, since)
}

func (r *ReportRepository) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.q(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

// ActivePlanBreakdown groups Active subscriptions by plan and billing cycle
func (r *ReportRepository) ActivePlanBreakdown(ctx context.Context, asOf time.Time) ([]report.PlanBreakdownRow, error) {
	query := `
		SELECT p.id, p.name, s.billing_cycle, COUNT(*), p.price_monthly, p.price_yearly
		FROM subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.status = 'active' AND s.end_date >= $1::date
		GROUP BY p.id, p.name, s.billing_cycle, p.price_monthly, p.price_yearly
		ORDER BY p.name, s.billing_cycle
	`

	rows, err := r.db.q(ctx).Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan breakdown: %w", err)
	}
	defer rows.Close()

	out := []report.PlanBreakdownRow{}
	for rows.Next() {
		var row report.PlanBreakdownRow
		if err := rows.Scan(&row.PlanID, &row.PlanName, &row.BillingCycle, &row.Subscriptions, &row.PriceMonthly, &row.PriceYearly); err != nil {
			return nil, fmt.Errorf("failed to scan plan breakdown: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ReportRepository) SumCompletedPayments(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = 'completed' AND payment_date >= $1 AND payment_date < $2
	`

	var total decimal.Decimal
	if err := r.db.q(ctx).QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

// ========== Exports ==========

// dayRange filters a column by calendar day, both ends inclusive.
func dayRange(w *where, column string, rg report.DateRange) {
	if rg.From != nil {
		w.add(column+" >= $%d", *rg.From)
	}
	if rg.To != nil {
		w.add(column+" < $%d", rg.To.AddDate(0, 0, 1))
	}
}

func (r *ReportRepository) ExportCustomers(ctx context.Context, rg report.DateRange) ([]report.CustomerRow, error) {
	w := &where{}
	dayRange(w, "created_at", rg)

	query := `
		SELECT id, reference, full_name, email, COALESCE(phone, ''), COALESCE(company, ''), created_at
		FROM customers
		WHERE ` + w.clause() + `
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export customers: %w", err)
	}
	defer rows.Close()

	out := []report.CustomerRow{}
	for rows.Next() {
		var c report.CustomerRow
		if err := rows.Scan(&c.ID, &c.Reference, &c.FullName, &c.Email, &c.Phone, &c.Company, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExportSubscriptions keeps subscriptions that start on or after From and end
// on or before To.
func (r *ReportRepository) ExportSubscriptions(ctx context.Context, rg report.DateRange) ([]report.SubscriptionRow, error) {
	w := &where{}
	if rg.From != nil {
		w.add("s.start_date >= $%d::date", *rg.From)
	}
	if rg.To != nil {
		w.add("s.end_date <= $%d::date", *rg.To)
	}

	query := `
		SELECT s.id, s.reference, c.full_name, c.email, p.name, s.status, s.billing_cycle,
		       s.start_date, s.end_date, COALESCE(s.cancellation_reason, '')
		FROM subscriptions s
		JOIN customers c ON c.id = s.customer_id
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE ` + w.clause() + `
		ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := r.db.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export subscriptions: %w", err)
	}
	defer rows.Close()

	out := []report.SubscriptionRow{}
	for rows.Next() {
		var s report.SubscriptionRow
		if err := rows.Scan(
			&s.ID, &s.Reference, &s.CustomerName, &s.CustomerEmail, &s.PlanName, &s.Status, &s.BillingCycle,
			&s.StartDate, &s.EndDate, &s.CancellationReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ReportRepository) ExportPayments(ctx context.Context, rg report.DateRange) ([]report.PaymentRow, error) {
	w := &where{}
	dayRange(w, "pm.payment_date", rg)

	query := `
		SELECT pm.id, pm.reference, c.full_name, c.email, pm.amount, pm.currency, pm.payment_date,
		       pm.payment_method, pm.status, pm.transaction_id
		FROM payments pm
		JOIN customers c ON c.id = pm.customer_id
		WHERE ` + w.clause() + `
		ORDER BY pm.payment_date DESC, pm.id DESC
	`

	rows, err := r.db.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}
	defer rows.Close()

	out := []report.PaymentRow{}
	for rows.Next() {
		var p report.PaymentRow
		if err := rows.Scan(
			&p.ID, &p.Reference, &p.CustomerName, &p.CustomerEmail, &p.Amount, &p.Currency, &p.PaymentDate,
			&p.Method, &p.Status, &p.TransactionID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ExportMonthlyRevenue groups completed payments by YYYY-MM
func (r *ReportRepository) ExportMonthlyRevenue(ctx context.Context, rg report.DateRange) ([]report.MonthlyRevenueRow, error) {
	w := &where{}
	w.conditions = append(w.conditions, "status = 'completed'")
	dayRange(w, "payment_date", rg)

	query := `
		SELECT to_char(payment_date AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
		       COALESCE(SUM(amount), 0), COUNT(*)
		FROM payments
		WHERE ` + w.clause() + `
		GROUP BY month
		ORDER BY month
	`

	rows, err := r.db.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export revenue: %w", err)
	}
	defer rows.Close()

	out := []report.MonthlyRevenueRow{}
	for rows.Next() {
		var m report.MonthlyRevenueRow
		if err := rows.Scan(&m.Month, &m.TotalRevenue, &m.PaymentCount); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
