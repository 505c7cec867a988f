package testutil

import (
	"context"

	"billing-service/internal/domain/audit"

	"github.com/samber/lo"
)

type usageLogStore struct{ s *Store }

func (r *usageLogStore) Create(_ context.Context, l *audit.UsageLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.logs.nextID()
	l.CreatedAt = r.s.now()
	r.s.logs.rows[l.ID] = *l
	return nil
}

func (r *usageLogStore) List(_ context.Context, f *audit.ListFilters) ([]audit.UsageLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := lo.Filter(r.s.logs.ordered(), func(l audit.UsageLog, _ int) bool {
		if f.CustomerID != nil && l.CustomerID != *f.CustomerID {
			return false
		}
		return f.Feature == nil || l.Feature == *f.Feature
	})
	rows = lo.Reverse(rows)

	start, end := page(len(rows), f.Page, f.PageSize)
	return rows[start:end], int64(len(rows)), nil
}
