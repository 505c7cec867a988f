// internal/domain/customer/repository.go
package customer

import "context"

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id int64) (*Customer, error)
	// FindByEmail expects a normalized email.
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	// ExistsByEmail ignores the customer with excludeID (0 to check all).
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	// List orders newest first.
	List(ctx context.Context, filters *ListFilters) ([]Customer, int64, error)
}
