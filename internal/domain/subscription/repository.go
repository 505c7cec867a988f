// internal/domain/subscription/repository.go
package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Update(ctx context.Context, s *Subscription) error
	FindByID(ctx context.Context, id int64) (*Subscription, error)
	// FindActiveByCustomer returns NotFound when the customer has no Active subscription.
	FindActiveByCustomer(ctx context.Context, customerID int64) (*Subscription, error)
	// FindActiveByCustomers returns the Active subscriptions of the given customers, newest first.
	FindActiveByCustomers(ctx context.Context, customerIDs []int64) ([]Subscription, error)
	// List orders newest first.
	List(ctx context.Context, filters *ListFilters) ([]Subscription, int64, error)
	// FindActiveEndingBetween returns Active subscriptions with from <= end_date <= to.
	FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error)
	// FindActiveEndedBefore returns Active subscriptions with end_date < day.
	FindActiveEndedBefore(ctx context.Context, day time.Time) ([]Subscription, error)
	CountByPlan(ctx context.Context, planID int64) (int64, error)
}
