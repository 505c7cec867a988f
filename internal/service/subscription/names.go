package subscription

import (
	"context"
	"fmt"

	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/plan"
	xerrors "billing-service/internal/pkg/errors"
)

type customerName struct {
	name, email string
}

// nameCache resolves display names once per list call.
type nameCache struct {
	customerRepo customer.Repository
	planRepo     plan.Repository
	customers    map[int64]customerName
	plans        map[int64]string
}

func newNameCache(customerRepo customer.Repository, planRepo plan.Repository) *nameCache {
	return &nameCache{
		customerRepo: customerRepo,
		planRepo:     planRepo,
		customers:    map[int64]customerName{},
		plans:        map[int64]string{},
	}
}

// customer returns blanks for a missing customer; other lookup errors are returned.
func (n *nameCache) customer(ctx context.Context, id int64) (string, string, error) {
	if c, ok := n.customers[id]; ok {
		return c.name, c.email, nil
	}
	var c customerName
	found, err := n.customerRepo.FindByID(ctx, id)
	switch {
	case err == nil:
		c = customerName{name: found.FullName, email: found.Email}
	case !xerrors.Is(err, xerrors.ErrNotFound):
		return "", "", fmt.Errorf("failed to load customer %d: %w", id, err)
	}
	n.customers[id] = c
	return c.name, c.email, nil
}

func (n *nameCache) plan(ctx context.Context, id int64) (string, error) {
	if name, ok := n.plans[id]; ok {
		return name, nil
	}
	var name string
	found, err := n.planRepo.FindByID(ctx, id)
	switch {
	case err == nil:
		name = found.Name
	case !xerrors.Is(err, xerrors.ErrNotFound):
		return "", fmt.Errorf("failed to load plan %d: %w", id, err)
	}
	n.plans[id] = name
	return name, nil
}
