package testutil

import (
	"context"
	"sort"

	"billing-service/internal/domain/payment"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/samber/lo"
)

type paymentStore struct{ s *Store }

func (r *paymentStore) Create(_ context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !p.Amount.IsPositive() {
		return xerrors.Validation("payment amount must be greater than zero")
	}
	p.ID = r.s.payments.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.payments.rows[p.ID] = *p
	return nil
}

func (r *paymentStore) Update(_ context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments.rows[p.ID]; !ok {
		return xerrors.NotFound("payment not found")
	}
	p.UpdatedAt = r.s.now()
	r.s.payments.rows[p.ID] = *p
	return nil
}

func (r *paymentStore) FindByID(_ context.Context, id int64) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments.rows[id]
	if !ok {
		return nil, xerrors.NotFound("payment not found")
	}
	return &p, nil
}

func (r *paymentStore) List(_ context.Context, f *payment.ListFilters) ([]payment.Payment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := lo.Filter(r.s.payments.ordered(), func(p payment.Payment, _ int) bool {
		switch {
		case f.CustomerID != nil && p.CustomerID != *f.CustomerID:
			return false
		case f.SubscriptionID != nil && (!p.SubscriptionID.Valid || p.SubscriptionID.Int64 != *f.SubscriptionID):
			return false
		case f.Status != nil && p.Status != *f.Status:
			return false
		case f.Method != nil && p.Method != *f.Method:
			return false
		case f.From != nil && p.PaymentDate.Before(*f.From):
			return false
		case f.To != nil && !p.PaymentDate.Before(f.To.AddDate(0, 0, 1)):
			return false
		}
		return true
	})
	sortByPaymentDateDesc(rows)

	start, end := page(len(rows), f.Page, f.PageSize)
	return rows[start:end], int64(len(rows)), nil
}

func (r *paymentStore) ListRecentByCustomer(_ context.Context, customerID int64, limit int) ([]payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := lo.Filter(r.s.payments.ordered(), func(p payment.Payment, _ int) bool { return p.CustomerID == customerID })
	sortByPaymentDateDesc(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func sortByPaymentDateDesc(rows []payment.Payment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PaymentDate.Equal(rows[j].PaymentDate) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].PaymentDate.After(rows[j].PaymentDate)
	})
}
