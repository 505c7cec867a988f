// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"fmt"

	"billing-service/internal/domain/customer"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `
	id, reference, full_name, email, phone, company, notes, tags, created_at, updated_at`

type CustomerRepository struct {
	db *DB
}

func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

var _ customer.Repository = (*CustomerRepository)(nil)

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (reference, full_name, email, phone, company, notes, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		c.Reference, c.FullName, c.Email, c.Phone, c.Company, c.Notes, textArray(c.Tags),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapError(err, "customer not found")
	}

	return nil
}

// Update updates a customer
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET full_name = $1, email = $2, phone = $3, company = $4, notes = $5, tags = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.q(ctx).QueryRow(
		ctx, query,
		c.FullName, c.Email, c.Phone, c.Company, c.Notes, textArray(c.Tags), c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return mapError(err, "customer not found")
	}

	return nil
}

// FindByID retrieves a customer by ID
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.db.q(ctx).QueryRow(ctx, query, id))
}

// FindByEmail retrieves a customer by normalized email
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return scanCustomer(r.db.q(ctx).QueryRow(ctx, query, email))
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1 AND id <> $2)`

	var exists bool
	if err := r.db.q(ctx).QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check customer email: %w", err)
	}
	return exists, nil
}

// List retrieves customers, newest first
func (r *CustomerRepository) List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	w := &where{}
	if filters.Search != "" {
		w.search(filters.Search, "full_name", "email", "company")
	}
	whereClause := w.clause()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE %s", whereClause)
	if err := r.db.q(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	limit, args := w.page(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		WHERE %s
		ORDER BY created_at DESC, id DESC
		%s
	`, customerColumns, whereClause, limit)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}

	return customers, total, rows.Err()
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Reference, &c.FullName, &c.Email, &c.Phone, &c.Company,
		&c.Notes, &c.Tags, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "customer not found")
	}
	return &c, nil
}
