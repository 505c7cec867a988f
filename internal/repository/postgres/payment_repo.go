// internal/repository/postgres/payment_repo.go
package postgres

import (
	"context"
	"fmt"

	"billing-service/internal/domain/payment"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, reference, customer_id, subscription_id, amount, currency, payment_date,
	payment_method, status, transaction_id, failure_reason, created_at, updated_at`

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

var _ payment.Repository = (*PaymentRepository)(nil)

// Create inserts a payment. The amount check constraint rejects amounts <= 0.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			reference, customer_id, subscription_id, amount, currency, payment_date,
			payment_method, status, transaction_id, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		p.Reference, p.CustomerID, p.SubscriptionID, p.Amount, p.Currency, p.PaymentDate,
		p.Method, p.Status, p.TransactionID, p.FailureReason,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, "payment not found")
	}

	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, payment_date = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.q(ctx).QueryRow(ctx, query, p.Status, p.PaymentDate, p.FailureReason, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		return mapError(err, "payment not found")
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		query += ` FOR UPDATE`
	}
	return scanPayment(r.db.q(ctx).QueryRow(ctx, query, id))
}

// List retrieves payments by payment date, newest first
func (r *PaymentRepository) List(ctx context.Context, filters *payment.ListFilters) ([]payment.Payment, int64, error) {
	w := &where{}
	if filters.CustomerID != nil {
		w.add("customer_id = $%d", *filters.CustomerID)
	}
	if filters.SubscriptionID != nil {
		w.add("subscription_id = $%d", *filters.SubscriptionID)
	}
	if filters.Status != nil {
		w.add("status = $%d", *filters.Status)
	}
	if filters.Method != nil {
		w.add("payment_method = $%d", *filters.Method)
	}
	if filters.From != nil {
		w.add("payment_date >= $%d", *filters.From)
	}
	if filters.To != nil {
		w.add("payment_date < $%d", filters.To.AddDate(0, 0, 1))
	}
	whereClause := w.clause()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s", whereClause)
	if err := r.db.q(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	limit, args := w.page(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM payments
		WHERE %s
		ORDER BY payment_date DESC, id DESC
		%s
	`, paymentColumns, whereClause, limit)

	payments, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *PaymentRepository) ListRecentByCustomer(ctx context.Context, customerID int64, limit int) ([]payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE customer_id = $1
		ORDER BY payment_date DESC, id DESC
		LIMIT $2
	`
	return r.query(ctx, query, customerID, limit)
}

func (r *PaymentRepository) query(ctx context.Context, query string, args ...interface{}) ([]payment.Payment, error) {
	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []payment.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID, &p.Reference, &p.CustomerID, &p.SubscriptionID, &p.Amount, &p.Currency, &p.PaymentDate,
		&p.Method, &p.Status, &p.TransactionID, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "payment not found")
	}
	return &p, nil
}
