// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"fmt"
	"strings"

	"billing-service/internal/domain"
	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/pagination"
	"billing-service/internal/pkg/reference"
	auditsvc "billing-service/internal/service/audit"

	"go.uber.org/zap"
)

type SubscriptionService struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	customerRepo     customer.Repository
	tx               domain.Transactor
	audit            *auditsvc.Writer
	clock            clock.Clock
	logger           *zap.Logger
}

func NewSubscriptionService(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	customerRepo customer.Repository,
	tx domain.Transactor,
	audit *auditsvc.Writer,
	clk clock.Clock,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		customerRepo:     customerRepo,
		tx:               tx,
		audit:            audit,
		clock:            clk,
		logger:           logger,
	}
}

// ========== Commands ==========

// CreateSubscription starts an Active subscription for a customer
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error) {
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = subscription.CycleMonthly
	}

	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
			return err
		}
		p, err := s.planRepo.FindByID(ctx, req.PlanID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return xerrors.Validation("plan %s is not available", p.Name)
		}

		sub, logs, err = s.Provision(ctx, req.CustomerID, req.PlanID, cycle)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.logger.Info("subscription created",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("customer_id", sub.CustomerID),
		zap.Int64("plan_id", sub.PlanID),
		zap.String("billing_cycle", string(sub.BillingCycle)),
	)
	return sub, nil
}

// Provision creates a subscription inside the caller's transaction. The
// returned logs must be published once that transaction commits.
func (s *SubscriptionService) Provision(ctx context.Context, customerID, planID int64, cycle subscription.BillingCycle) (*subscription.Subscription, []audit.UsageLog, error) {
	sub, events, err := subscription.New(customerID, planID, cycle, s.clock.Now())
	if err != nil {
		return nil, nil, err
	}
	sub.Reference = reference.New(reference.Subscription)

	guardLogs, err := s.guardOneActive(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	if err := sub.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	logs, err := s.record(ctx, sub, events)
	if err != nil {
		return nil, nil, err
	}
	return sub, append(guardLogs, logs...), nil
}

// CancelSubscription cancels a subscription and records the reason
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id int64, reason string) (*subscription.Subscription, error) {
	reason = strings.TrimSpace(reason)

	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, logs, err = s.load(ctx, id)
		if err != nil {
			return err
		}

		events, err := sub.Cancel(reason, s.clock.Now())
		if err != nil {
			return err
		}
		more, err := s.save(ctx, sub, events)
		logs = append(logs, more...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.logger.Info("subscription cancelled",
		zap.Int64("subscription_id", sub.ID),
		zap.String("reason", reason),
	)
	return sub, nil
}

// ChangePlan moves an Active subscription to another plan
func (s *SubscriptionService) ChangePlan(ctx context.Context, id, newPlanID int64) (*subscription.ChangePlanResponse, error) {
	var (
		resp *subscription.ChangePlanResponse
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, reconciled, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		logs = reconciled

		newPlan, err := s.planRepo.FindByID(ctx, newPlanID)
		if err != nil {
			return err
		}
		if !newPlan.IsActive {
			return xerrors.Validation("plan %s is not available", newPlan.Name)
		}
		oldPlan, err := s.planRepo.FindByID(ctx, sub.PlanID)
		if err != nil {
			return fmt.Errorf("failed to load current plan: %w", err)
		}

		events, err := sub.ChangePlan(newPlan.ID, oldPlan.Name, newPlan.Name, s.clock.Now())
		if err != nil {
			return err
		}
		more, err := s.save(ctx, sub, events)
		if err != nil {
			return err
		}
		logs = append(logs, more...)

		resp = &subscription.ChangePlanResponse{Subscription: sub, OldPlan: oldPlan.Name, NewPlan: newPlan.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.logger.Info("subscription plan changed",
		zap.Int64("subscription_id", resp.Subscription.ID),
		zap.String("from", resp.OldPlan),
		zap.String("to", resp.NewPlan),
	)
	return resp, nil
}

// ExtendSubscription adds days to the current term. The status is
// reconciled against the new end date, so an overdue Active subscription
// extended past today stays Active.
func (s *SubscriptionService) ExtendSubscription(ctx context.Context, id int64, days int) (*subscription.ExtendResponse, error) {
	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subscriptionRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := sub.Extend(days); err != nil {
			return err
		}
		logs, err = s.save(ctx, sub, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.logger.Info("subscription extended",
		zap.Int64("subscription_id", sub.ID),
		zap.Int("days", days),
		zap.Time("end_date", sub.EndDate),
	)
	return &subscription.ExtendResponse{Subscription: sub, NewEndDate: sub.EndDate}, nil
}

// ApplyCompletedPayment extends a subscription by one billing period. It runs
// inside the payment's transaction; the caller publishes the returned logs.
func (s *SubscriptionService) ApplyCompletedPayment(ctx context.Context, id int64) (*subscription.Subscription, []audit.UsageLog, error) {
	sub, logs, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	events := sub.ApplyPayment(s.clock.Now())
	more, err := s.save(ctx, sub, events)
	if err != nil {
		return nil, nil, err
	}
	return sub, append(logs, more...), nil
}

// ReconcileOverdue expires every Active subscription whose end date has passed.
func (s *SubscriptionService) ReconcileOverdue(ctx context.Context) (int, error) {
	var logs []audit.UsageLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		logs, err = s.expireOverdue(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.audit.Publish(logs)
	return len(logs), nil
}

// ========== Queries ==========

// GetSubscription returns a reconciled subscription
func (s *SubscriptionService) GetSubscription(ctx context.Context, id int64) (*subscription.Subscription, error) {
	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, logs, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(logs)
	return sub, nil
}

// ListSubscriptions returns reconciled subscriptions with customer and plan names
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, filters *subscription.ListFilters) (*subscription.ListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	var (
		items []subscription.ListItem
		total int64
		logs  []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Expire first so status filters and the total see reconciled rows.
		expired, err := s.expireOverdue(ctx)
		if err != nil {
			return err
		}
		logs = expired

		subs, count, err := s.subscriptionRepo.List(ctx, filters)
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		total = count

		names := newNameCache(s.customerRepo, s.planRepo)
		items = make([]subscription.ListItem, 0, len(subs))
		for i := range subs {
			more, err := s.reconcile(ctx, &subs[i])
			if err != nil {
				return err
			}
			logs = append(logs, more...)

			item := subscription.ListItem{Subscription: subs[i]}
			item.CustomerName, item.CustomerEmail, err = names.customer(ctx, subs[i].CustomerID)
			if err != nil {
				return err
			}
			item.PlanName, err = names.plan(ctx, subs[i].PlanID)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	return &subscription.ListResponse{
		Subscriptions: items,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    pagination.TotalPages(total, filters.PageSize),
	}, nil
}

// GetActiveSubscription returns the customer's reconciled Active subscription,
// or nil when there is none.
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, customerID int64) (*subscription.Subscription, error) {
	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.subscriptionRepo.FindActiveByCustomer(ctx, customerID)
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		logs, err = s.reconcile(ctx, found)
		if err != nil {
			return err
		}
		if found.IsActive() {
			sub = found
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(logs)
	return sub, nil
}

// ActiveByCustomers returns the reconciled Active subscription of each
// customer that has one, keyed by customer id.
func (s *SubscriptionService) ActiveByCustomers(ctx context.Context, customerIDs []int64) (map[int64]*subscription.Subscription, error) {
	active := make(map[int64]*subscription.Subscription, len(customerIDs))
	var logs []audit.UsageLog
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.subscriptionRepo.FindActiveByCustomers(ctx, customerIDs)
		if err != nil {
			return fmt.Errorf("failed to find active subscriptions: %w", err)
		}
		for i := range found {
			sub := &found[i]
			more, err := s.reconcile(ctx, sub)
			if err != nil {
				return err
			}
			logs = append(logs, more...)
			if _, ok := active[sub.CustomerID]; !ok && sub.IsActive() {
				active[sub.CustomerID] = sub
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Publish(logs)
	return active, nil
}

// CheckSubscriptionStatus answers whether an email holds an Active
// subscription and what its plan grants. Unknown emails are not an error.
func (s *SubscriptionService) CheckSubscriptionStatus(ctx context.Context, email string) (*subscription.StatusResponse, error) {
	email = customer.NormalizeEmail(email)
	if email == "" {
		return nil, xerrors.Validation("email is required")
	}

	c, err := s.customerRepo.FindByEmail(ctx, email)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return &subscription.StatusResponse{HasSubscription: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	sub, err := s.GetActiveSubscription(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &subscription.StatusResponse{HasSubscription: false}, nil
	}

	p, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	limits := p.Limits()
	end := sub.EndDate

	return &subscription.StatusResponse{
		HasSubscription: true,
		Status:          sub.Status,
		BillingCycle:    sub.BillingCycle,
		Plan:            &limits,
		EndDate:         &end,
	}, nil
}

// ========== Internals ==========

// load fetches a subscription and reconciles it.
func (s *SubscriptionService) load(ctx context.Context, id int64) (*subscription.Subscription, []audit.UsageLog, error) {
	sub, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.reconcile(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	return sub, logs, nil
}

// expireOverdue saves every Active subscription that ended before today.
// It must run inside a transaction.
func (s *SubscriptionService) expireOverdue(ctx context.Context) ([]audit.UsageLog, error) {
	overdue, err := s.subscriptionRepo.FindActiveEndedBefore(ctx, clock.Today(s.clock))
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue subscriptions: %w", err)
	}
	var logs []audit.UsageLog
	for i := range overdue {
		more, err := s.save(ctx, &overdue[i], nil)
		if err != nil {
			return nil, err
		}
		logs = append(logs, more...)
	}
	return logs, nil
}

// reconcile persists the result of Reconcile when it changed anything.
func (s *SubscriptionService) reconcile(ctx context.Context, sub *subscription.Subscription) ([]audit.UsageLog, error) {
	events := sub.Reconcile(s.clock.Now())
	if len(events) == 0 {
		return nil, nil
	}
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to expire subscription: %w", err)
	}
	return s.record(ctx, sub, events)
}

// save reconciles, validates, guards and persists a mutated subscription,
// then records its events.
func (s *SubscriptionService) save(ctx context.Context, sub *subscription.Subscription, events []audit.Event) ([]audit.UsageLog, error) {
	events = append(events, sub.Reconcile(s.clock.Now())...)

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	guardLogs, err := s.guardOneActive(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	logs, err := s.record(ctx, sub, events)
	if err != nil {
		return nil, err
	}
	return append(guardLogs, logs...), nil
}

// guardOneActive rejects sub when its customer already holds a different
// Active subscription. A stale Active one is expired first.
func (s *SubscriptionService) guardOneActive(ctx context.Context, sub *subscription.Subscription) ([]audit.UsageLog, error) {
	if !sub.IsActive() {
		return nil, nil
	}

	existing, err := s.subscriptionRepo.FindActiveByCustomer(ctx, sub.CustomerID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check active subscription: %w", err)
	}
	if existing.ID == sub.ID {
		return nil, nil
	}

	logs, err := s.reconcile(ctx, existing)
	if err != nil {
		return nil, err
	}
	if existing.IsActive() {
		return nil, xerrors.Conflict("customer already has an active subscription (%s)", existing.Reference)
	}
	return logs, nil
}

func (s *SubscriptionService) record(ctx context.Context, sub *subscription.Subscription, events []audit.Event) ([]audit.UsageLog, error) {
	if len(events) == 0 {
		return nil, nil
	}
	for i := range events {
		events[i].SubscriptionID = sub.ID
		events[i].CustomerID = sub.CustomerID
	}
	return s.audit.Record(ctx, events...)
}
