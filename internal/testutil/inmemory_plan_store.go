package testutil

import (
	"context"
	"sort"
	"strings"

	"billing-service/internal/domain/plan"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/samber/lo"
)

type planStore struct{ s *Store }

func (r *planStore) Create(_ context.Context, p *plan.SubscriptionPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(p.Name, 0) {
		return xerrors.Conflict("plan %s already exists", p.Name)
	}
	p.ID = r.s.plans.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.plans.rows[p.ID] = *p
	return nil
}

func (r *planStore) Update(_ context.Context, p *plan.SubscriptionPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans.rows[p.ID]; !ok {
		return xerrors.NotFound("plan not found")
	}
	if r.nameTaken(p.Name, p.ID) {
		return xerrors.Conflict("plan %s already exists", p.Name)
	}
	p.UpdatedAt = r.s.now()
	r.s.plans.rows[p.ID] = *p
	return nil
}

func (r *planStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans.rows[id]; !ok {
		return xerrors.NotFound("plan not found")
	}
	for _, sub := range r.s.subscriptions.rows {
		if sub.PlanID == id {
			return xerrors.Conflict("plan is referenced by subscriptions")
		}
	}
	delete(r.s.plans.rows, id)
	return nil
}

func (r *planStore) FindByID(_ context.Context, id int64) (*plan.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans.rows[id]
	if !ok {
		return nil, xerrors.NotFound("plan not found")
	}
	return &p, nil
}

func (r *planStore) FindByName(_ context.Context, name string) (*plan.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := lo.Find(r.s.plans.ordered(), func(p plan.SubscriptionPlan) bool { return p.Name == name })
	if !ok {
		return nil, xerrors.NotFound("plan %s not found", name)
	}
	return &p, nil
}

func (r *planStore) nameTaken(name string, excludeID int64) bool {
	for id, p := range r.s.plans.rows {
		if id != excludeID && p.Name == name {
			return true
		}
	}
	return false
}

func (r *planStore) List(_ context.Context, f *plan.ListFilters) ([]plan.SubscriptionPlan, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := lo.Filter(r.s.plans.ordered(), func(p plan.SubscriptionPlan, _ int) bool {
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			return false
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			return false
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PriceMonthly.LessThan(rows[j].PriceMonthly)
	})

	start, end := page(len(rows), f.Page, f.PageSize)
	return rows[start:end], int64(len(rows)), nil
}
