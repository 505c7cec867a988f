package testutil

import (
	"context"

	"billing-service/internal/domain/admin"
	xerrors "billing-service/internal/pkg/errors"
)

type adminStore struct{ s *Store }

func (r *adminStore) Create(_ context.Context, a *admin.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.admins.rows {
		if other.Email == a.Email {
			return xerrors.Conflict("operator %s already exists", a.Email)
		}
	}
	a.ID = r.s.admins.nextID()
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.admins.rows[a.ID] = *a
	return nil
}

func (r *adminStore) FindByEmail(_ context.Context, email string) (*admin.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins.rows {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, xerrors.NotFound("operator not found")
}

func (r *adminStore) FindByID(_ context.Context, id int64) (*admin.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins.rows[id]
	if !ok {
		return nil, xerrors.NotFound("operator not found")
	}
	return &a, nil
}

func (r *adminStore) UpdateLastLogin(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins.rows[id]
	if !ok {
		return xerrors.NotFound("operator not found")
	}
	now := r.s.now()
	a.LastLogin = &now
	r.s.admins.rows[id] = a
	return nil
}

func (r *adminStore) CountByRole(_ context.Context, role admin.Role) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.admins.rows {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}
