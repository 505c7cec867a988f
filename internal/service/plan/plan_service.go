// internal/service/plan/plan_service.go
package plan

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/pagination"

	"go.uber.org/zap"
)

const defaultCurrency = "USD"

type PlanService struct {
	planRepo         plan.Repository
	subscriptionRepo subscription.Repository
	logger           *zap.Logger
}

func NewPlanService(planRepo plan.Repository, subscriptionRepo subscription.Repository, logger *zap.Logger) *PlanService {
	return &PlanService{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// CreatePlan creates a new subscription plan
func (s *PlanService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.SaveResult, error) {
	p := &plan.SubscriptionPlan{
		Name:               strings.TrimSpace(req.Name),
		Description:        sql.NullString{String: req.Description, Valid: req.Description != ""},
		PriceMonthly:       req.PriceMonthly,
		PriceYearly:        req.PriceYearly,
		Currency:           currencyOrDefault(req.Currency),
		Features:           req.Features,
		MaxHabits:          req.MaxHabits,
		MaxGoals:           req.MaxGoals,
		HasStatistics:      req.HasStatistics,
		HasExport:          req.HasExport,
		HasPrioritySupport: req.HasPrioritySupport,
		IsActive:           true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	notices, err := p.Validate()
	if err != nil {
		return nil, err
	}

	if existing, err := s.planRepo.FindByName(ctx, p.Name); err == nil && existing != nil {
		return nil, xerrors.Conflict("plan %s already exists", p.Name)
	} else if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check plan name: %w", err)
	}

	if err := s.planRepo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create plan", zap.Error(err))
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("subscription plan created",
		zap.Int64("plan_id", p.ID),
		zap.String("name", p.Name),
	)

	return &plan.SaveResult{Plan: p, Notices: notices}, nil
}

// UpdatePlan applies a partial edit and revalidates the plan
func (s *PlanService) UpdatePlan(ctx context.Context, id int64, req *plan.UpdatePlanRequest) (*plan.SaveResult, error) {
	p, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.PriceMonthly != nil {
		p.PriceMonthly = *req.PriceMonthly
	}
	if req.PriceYearly != nil {
		p.PriceYearly = *req.PriceYearly
	}
	if req.Currency != nil {
		p.Currency = currencyOrDefault(*req.Currency)
	}
	if req.Features != nil {
		p.Features = req.Features
	}
	if req.MaxHabits != nil {
		p.MaxHabits = *req.MaxHabits
	}
	if req.MaxGoals != nil {
		p.MaxGoals = *req.MaxGoals
	}
	if req.HasStatistics != nil {
		p.HasStatistics = *req.HasStatistics
	}
	if req.HasExport != nil {
		p.HasExport = *req.HasExport
	}
	if req.HasPrioritySupport != nil {
		p.HasPrioritySupport = *req.HasPrioritySupport
	}

	notices, err := p.Validate()
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("subscription plan updated", zap.Int64("plan_id", p.ID))
	return &plan.SaveResult{Plan: p, Notices: notices}, nil
}

// SetPlanActive shows or hides a plan from the public catalog
func (s *PlanService) SetPlanActive(ctx context.Context, id int64, active bool) (*plan.SubscriptionPlan, error) {
	p, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsActive == active {
		return p, nil
	}

	p.IsActive = active
	if err := s.planRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("subscription plan visibility changed",
		zap.Int64("plan_id", p.ID),
		zap.Bool("is_active", active),
	)
	return p, nil
}

// DeletePlan removes a plan that no subscription has ever referenced
func (s *PlanService) DeletePlan(ctx context.Context, id int64) error {
	if _, err := s.planRepo.FindByID(ctx, id); err != nil {
		return err
	}

	inUse, err := s.subscriptionRepo.CountByPlan(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count plan subscriptions: %w", err)
	}
	if inUse > 0 {
		return xerrors.Conflict("plan is referenced by %d subscription(s); deactivate it instead", inUse)
	}

	if err := s.planRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	s.logger.Info("subscription plan deleted", zap.Int64("plan_id", id))
	return nil
}

// GetPlan retrieves a subscription plan by ID
func (s *PlanService) GetPlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	return s.planRepo.FindByID(ctx, id)
}

// ListPlans retrieves subscription plans with filters
func (s *PlanService) ListPlans(ctx context.Context, filters *plan.ListFilters) (*plan.ListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)

	plans, total, err := s.planRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return &plan.ListResponse{
		Plans:      plans,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

// ListActivePlans returns the public catalog, cheapest first
func (s *PlanService) ListActivePlans(ctx context.Context) ([]plan.SubscriptionPlan, error) {
	active := true
	resp, err := s.ListPlans(ctx, &plan.ListFilters{IsActive: &active, PageSize: pagination.MaxPageSize})
	if err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

func currencyOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return defaultCurrency
	}
	return c
}
