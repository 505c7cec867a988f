package testutil

import (
	"context"
	"sort"
	"time"

	"billing-service/internal/domain/subscription"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/samber/lo"
)

type subscriptionStore struct{ s *Store }

func (r *subscriptionStore) Create(_ context.Context, sub *subscription.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkOneActive(sub, 0); err != nil {
		return err
	}
	sub.ID = r.s.subscriptions.nextID()
	sub.CreatedAt = r.s.now()
	sub.UpdatedAt = sub.CreatedAt
	r.s.subscriptions.rows[sub.ID] = *sub
	return nil
}

func (r *subscriptionStore) Update(_ context.Context, sub *subscription.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscriptions.rows[sub.ID]; !ok {
		return xerrors.NotFound("subscription not found")
	}
	if err := r.checkOneActive(sub, sub.ID); err != nil {
		return err
	}
	sub.UpdatedAt = r.s.now()
	r.s.subscriptions.rows[sub.ID] = *sub
	return nil
}

// checkOneActive mirrors the partial unique index on active subscriptions.
func (r *subscriptionStore) checkOneActive(sub *subscription.Subscription, selfID int64) error {
	if sub.Status != subscription.StatusActive {
		return nil
	}
	for id, other := range r.s.subscriptions.rows {
		if id != selfID && other.CustomerID == sub.CustomerID && other.Status == subscription.StatusActive {
			return xerrors.Conflict("customer already has an active subscription")
		}
	}
	return nil
}

func (r *subscriptionStore) FindByID(_ context.Context, id int64) (*subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscriptions.rows[id]
	if !ok {
		return nil, xerrors.NotFound("subscription not found")
	}
	return &sub, nil
}

func (r *subscriptionStore) FindActiveByCustomer(_ context.Context, customerID int64) (*subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := lo.Find(r.s.subscriptions.ordered(), func(s subscription.Subscription) bool {
		return s.CustomerID == customerID && s.Status == subscription.StatusActive
	})
	if !ok {
		return nil, xerrors.NotFound("no active subscription")
	}
	return &sub, nil
}

func (r *subscriptionStore) FindActiveByCustomers(_ context.Context, customerIDs []int64) ([]subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := lo.Filter(r.s.subscriptions.ordered(), func(s subscription.Subscription, _ int) bool {
		return s.Status == subscription.StatusActive && lo.Contains(customerIDs, s.CustomerID)
	})
	return lo.Reverse(rows), nil
}

func (r *subscriptionStore) List(_ context.Context, f *subscription.ListFilters) ([]subscription.Subscription, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := lo.Filter(r.s.subscriptions.ordered(), func(s subscription.Subscription, _ int) bool {
		switch {
		case f.Status != nil && s.Status != *f.Status:
			return false
		case f.CustomerID != nil && s.CustomerID != *f.CustomerID:
			return false
		case f.PlanID != nil && s.PlanID != *f.PlanID:
			return false
		case f.BillingCycle != nil && s.BillingCycle != *f.BillingCycle:
			return false
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	start, end := page(len(rows), f.Page, f.PageSize)
	return rows[start:end], int64(len(rows)), nil
}

func (r *subscriptionStore) FindActiveEndingBetween(_ context.Context, from, to time.Time) ([]subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lo.Filter(r.s.subscriptions.ordered(), func(s subscription.Subscription, _ int) bool {
		return s.Status == subscription.StatusActive && !s.EndDate.Before(from) && !s.EndDate.After(to)
	}), nil
}

func (r *subscriptionStore) FindActiveEndedBefore(_ context.Context, day time.Time) ([]subscription.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lo.Filter(r.s.subscriptions.ordered(), func(s subscription.Subscription, _ int) bool {
		return s.Status == subscription.StatusActive && s.EndDate.Before(day)
	}), nil
}

func (r *subscriptionStore) CountByPlan(_ context.Context, planID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(lo.CountBy(r.s.subscriptions.ordered(), func(s subscription.Subscription) bool {
		return s.PlanID == planID
	})), nil
}
