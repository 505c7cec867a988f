// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"fmt"

	"billing-service/internal/domain/plan"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const planColumns = `
	id, name, description, price_monthly, price_yearly, currency, features,
	max_habits, max_goals, has_statistics, has_export, has_priority_support,
	is_active, created_at, updated_at`

type PlanRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

var _ plan.Repository = (*PlanRepository)(nil)

// Create creates a new subscription plan
func (r *PlanRepository) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			name, description, price_monthly, price_yearly, currency, features,
			max_habits, max_goals, has_statistics, has_export, has_priority_support, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		p.Name, p.Description, p.PriceMonthly, p.PriceYearly, p.Currency, textArray(p.Features),
		p.MaxHabits, p.MaxGoals, p.HasStatistics, p.HasExport, p.HasPrioritySupport, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", mapError(err, "plan not found"))
	}

	return nil
}

// Update replaces every editable column
func (r *PlanRepository) Update(ctx context.Context, p *plan.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans
		SET name = $1, description = $2, price_monthly = $3, price_yearly = $4, currency = $5,
		    features = $6, max_habits = $7, max_goals = $8, has_statistics = $9,
		    has_export = $10, has_priority_support = $11, is_active = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		p.Name, p.Description, p.PriceMonthly, p.PriceYearly, p.Currency,
		textArray(p.Features), p.MaxHabits, p.MaxGoals, p.HasStatistics,
		p.HasExport, p.HasPrioritySupport, p.IsActive, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return mapError(err, "plan not found")
	}

	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.q(ctx).Exec(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", mapError(err, "plan not found"))
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound("plan not found")
	}

	return nil
}

// FindByID retrieves a plan by ID
func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE id = $1`
	return r.scanOne(r.db.q(ctx).QueryRow(ctx, query, id))
}

// FindByName matches the name case-insensitively
func (r *PlanRepository) FindByName(ctx context.Context, name string) (*plan.SubscriptionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE LOWER(name) = LOWER($1)`
	return r.scanOne(r.db.q(ctx).QueryRow(ctx, query, name))
}

// List retrieves plans with filters, cheapest first
func (r *PlanRepository) List(ctx context.Context, filters *plan.ListFilters) ([]plan.SubscriptionPlan, int64, error) {
	w := &where{}
	if filters.IsActive != nil {
		w.add("is_active = $%d", *filters.IsActive)
	}
	if filters.Search != "" {
		w.search(filters.Search, "name", "description")
	}
	whereClause := w.clause()

	// Count total
	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM subscription_plans WHERE %s", whereClause)
	if err := r.db.q(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	limit, args := w.page(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM subscription_plans
		WHERE %s
		ORDER BY price_monthly ASC, id ASC
		%s
	`, planColumns, whereClause, limit)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []plan.SubscriptionPlan{}
	for rows.Next() {
		p, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, *p)
	}

	return plans, total, rows.Err()
}

func (r *PlanRepository) scanOne(row pgx.Row) (*plan.SubscriptionPlan, error) {
	var p plan.SubscriptionPlan
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceMonthly, &p.PriceYearly, &p.Currency, &p.Features,
		&p.MaxHabits, &p.MaxGoals, &p.HasStatistics, &p.HasExport, &p.HasPrioritySupport,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "plan not found")
	}
	return &p, nil
}
