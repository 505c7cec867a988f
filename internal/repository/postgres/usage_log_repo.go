// internal/repository/postgres/usage_log_repo.go
package postgres

import (
	"context"
	"fmt"

	"billing-service/internal/domain/audit"
)

type UsageLogRepository struct {
	db *DB
}

func NewUsageLogRepository(db *DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

var _ audit.Repository = (*UsageLogRepository)(nil)

func (r *UsageLogRepository) Create(ctx context.Context, l *audit.UsageLog) error {
	query := `
		INSERT INTO usage_logs (customer_id, subscription_id, feature, details, log_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		l.CustomerID, l.SubscriptionID, l.Feature, l.Details, l.LogDate,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return mapError(err, "usage log not found")
	}

	return nil
}

func (r *UsageLogRepository) List(ctx context.Context, filters *audit.ListFilters) ([]audit.UsageLog, int64, error) {
	w := &where{}
	if filters.CustomerID != nil {
		w.add("customer_id = $%d", *filters.CustomerID)
	}
	if filters.Feature != nil {
		w.add("feature = $%d", *filters.Feature)
	}
	whereClause := w.clause()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM usage_logs WHERE %s", whereClause)
	if err := r.db.q(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count usage logs: %w", err)
	}

	limit, args := w.page(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT id, customer_id, subscription_id, feature, details, log_date, created_at
		FROM usage_logs
		WHERE %s
		ORDER BY created_at DESC, id DESC
		%s
	`, whereClause, limit)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list usage logs: %w", err)
	}
	defer rows.Close()

	logs := []audit.UsageLog{}
	for rows.Next() {
		var l audit.UsageLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.SubscriptionID, &l.Feature, &l.Details, &l.LogDate, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan usage log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, total, rows.Err()
}
