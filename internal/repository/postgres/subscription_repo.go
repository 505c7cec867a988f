// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"billing-service/internal/domain/subscription"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, reference, customer_id, plan_id, status, billing_cycle,
	start_date, end_date, next_billing_date, cancellation_date, cancellation_reason,
	created_at, updated_at`

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

var _ subscription.Repository = (*SubscriptionRepository)(nil)

// Create creates a subscription. The partial unique index rejects a second
// Active subscription for the same customer.
func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			reference, customer_id, plan_id, status, billing_cycle,
			start_date, end_date, next_billing_date, cancellation_date, cancellation_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		s.Reference, s.CustomerID, s.PlanID, s.Status, s.BillingCycle,
		s.StartDate, s.EndDate, s.NextBillingDate, s.CancellationDate, s.CancellationReason,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapError(err, "subscription not found")
	}

	return nil
}

// Update writes the mutable state of a subscription
func (r *SubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $1, status = $2, billing_cycle = $3, end_date = $4, next_billing_date = $5,
		    cancellation_date = $6, cancellation_reason = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		s.PlanID, s.Status, s.BillingCycle, s.EndDate, s.NextBillingDate,
		s.CancellationDate, s.CancellationReason, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return mapError(err, "subscription not found")
	}

	return nil
}

// FindByID retrieves a subscription by ID, locking it inside a transaction
func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1` + r.lockClause(ctx)
	return scanSubscription(r.db.q(ctx).QueryRow(ctx, query, id))
}

func (r *SubscriptionRepository) FindActiveByCustomer(ctx context.Context, customerID int64) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE customer_id = $1 AND status = 'active'
		ORDER BY id DESC
		LIMIT 1` + r.lockClause(ctx)
	return scanSubscription(r.db.q(ctx).QueryRow(ctx, query, customerID))
}

func (r *SubscriptionRepository) FindActiveByCustomers(ctx context.Context, customerIDs []int64) ([]subscription.Subscription, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE customer_id = ANY($1) AND status = 'active'
		ORDER BY id DESC` + r.lockClause(ctx)
	return r.query(ctx, query, customerIDs)
}

// List retrieves subscriptions with filters, newest first
func (r *SubscriptionRepository) List(ctx context.Context, filters *subscription.ListFilters) ([]subscription.Subscription, int64, error) {
	w := &where{}
	if filters.Status != nil {
		w.add("status = $%d", *filters.Status)
	}
	if filters.CustomerID != nil {
		w.add("customer_id = $%d", *filters.CustomerID)
	}
	if filters.PlanID != nil {
		w.add("plan_id = $%d", *filters.PlanID)
	}
	if filters.BillingCycle != nil {
		w.add("billing_cycle = $%d", *filters.BillingCycle)
	}
	whereClause := w.clause()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM subscriptions WHERE %s", whereClause)
	if err := r.db.q(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	limit, args := w.page(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM subscriptions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		%s
	`, subscriptionColumns, whereClause, limit)

	subs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *SubscriptionRepository) FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active' AND end_date >= $1 AND end_date <= $2
		ORDER BY end_date ASC, id ASC
	`
	return r.query(ctx, query, from, to)
}

func (r *SubscriptionRepository) FindActiveEndedBefore(ctx context.Context, day time.Time) ([]subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active' AND end_date < $1
		ORDER BY end_date ASC, id ASC` + r.lockClause(ctx)
	return r.query(ctx, query, day)
}

func (r *SubscriptionRepository) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	var n int64
	err := r.db.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1`, planID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count plan subscriptions: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepository) query(ctx context.Context, query string, args ...interface{}) ([]subscription.Subscription, error) {
	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []subscription.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// lockClause takes row locks when the read is part of a transaction.
func (r *SubscriptionRepository) lockClause(ctx context.Context) string {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return " FOR UPDATE"
	}
	return ""
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(
		&s.ID, &s.Reference, &s.CustomerID, &s.PlanID, &s.Status, &s.BillingCycle,
		&s.StartDate, &s.EndDate, &s.NextBillingDate, &s.CancellationDate, &s.CancellationReason,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "subscription not found")
	}
	return &s, nil
}
