// internal/domain/plan/repository.go
package plan

import "context"

type Repository interface {
	Create(ctx context.Context, p *SubscriptionPlan) error
	Update(ctx context.Context, p *SubscriptionPlan) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*SubscriptionPlan, error)
	FindByName(ctx context.Context, name string) (*SubscriptionPlan, error)
	// List orders by monthly price ascending.
	List(ctx context.Context, filters *ListFilters) ([]SubscriptionPlan, int64, error)
}
