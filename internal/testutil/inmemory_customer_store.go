package testutil

import (
	"context"
	"sort"
	"strings"

	"billing-service/internal/domain/customer"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/samber/lo"
)

type customerStore struct{ s *Store }

func (r *customerStore) Create(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(c.Email, 0) {
		return xerrors.Conflict("customer with email %s already exists", c.Email)
	}
	c.ID = r.s.customers.nextID()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.customers.rows[c.ID] = *c
	return nil
}

func (r *customerStore) Update(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers.rows[c.ID]; !ok {
		return xerrors.NotFound("customer not found")
	}
	if r.emailTaken(c.Email, c.ID) {
		return xerrors.Conflict("customer with email %s already exists", c.Email)
	}
	c.UpdatedAt = r.s.now()
	r.s.customers.rows[c.ID] = *c
	return nil
}

func (r *customerStore) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers.rows[id]
	if !ok {
		return nil, xerrors.NotFound("customer not found")
	}
	return &c, nil
}

func (r *customerStore) FindByEmail(_ context.Context, email string) (*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := lo.Find(r.s.customers.ordered(), func(c customer.Customer) bool { return c.Email == email })
	if !ok {
		return nil, xerrors.NotFound("customer not found")
	}
	return &c, nil
}

func (r *customerStore) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.emailTaken(email, excludeID), nil
}

func (r *customerStore) emailTaken(email string, excludeID int64) bool {
	for id, c := range r.s.customers.rows {
		if id != excludeID && c.Email == email {
			return true
		}
	}
	return false
}

func (r *customerStore) List(_ context.Context, f *customer.ListFilters) ([]customer.Customer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := r.s.customers.ordered()
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		rows = lo.Filter(rows, func(c customer.Customer, _ int) bool {
			return strings.Contains(strings.ToLower(c.FullName), q) || strings.Contains(c.Email, q)
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	start, end := page(len(rows), f.Page, f.PageSize)
	return rows[start:end], int64(len(rows)), nil
}
