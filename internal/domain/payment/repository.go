// internal/domain/payment/repository.go
package payment

import "context"

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id int64) (*Payment, error)
	// List orders by payment date, newest first.
	List(ctx context.Context, filters *ListFilters) ([]Payment, int64, error)
	ListRecentByCustomer(ctx context.Context, customerID int64, limit int) ([]Payment, error)
}
