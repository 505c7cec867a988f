// internal/service/customer/customer_service.go
package customer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"billing-service/internal/domain"
	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/pagination"
	"billing-service/internal/pkg/reference"
	auditsvc "billing-service/internal/service/audit"
	subscriptionsvc "billing-service/internal/service/subscription"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const recentPaymentsLimit = 10

type CustomerService struct {
	customerRepo  customer.Repository
	planRepo      plan.Repository
	paymentRepo   payment.Repository
	subscriptions *subscriptionsvc.SubscriptionService
	tx            domain.Transactor
	audit         *auditsvc.Writer
	freePlanName  string
	logger        *zap.Logger
}

func NewCustomerService(
	customerRepo customer.Repository,
	planRepo plan.Repository,
	paymentRepo payment.Repository,
	subscriptions *subscriptionsvc.SubscriptionService,
	tx domain.Transactor,
	audit *auditsvc.Writer,
	freePlanName string,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo:  customerRepo,
		planRepo:      planRepo,
		paymentRepo:   paymentRepo,
		subscriptions: subscriptions,
		tx:            tx,
		audit:         audit,
		freePlanName:  freePlanName,
		logger:        logger,
	}
}

// CreateCustomer creates a customer and, when the free plan exists, starts a
// monthly subscription on it in the same transaction.
func (s *CustomerService) CreateCustomer(ctx context.Context, req *customer.CreateCustomerRequest) (*customer.CreateCustomerResponse, error) {
	email := customer.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.FullName)
	if email == "" {
		return nil, xerrors.Validation("email is required")
	}
	if name == "" {
		return nil, xerrors.Validation("full name is required")
	}

	c := &customer.Customer{
		Reference: reference.New(reference.Customer),
		FullName:  name,
		Email:     email,
		Phone:     nullString(req.Phone),
		Company:   nullString(req.Company),
		Notes:     nullString(req.Notes),
		Tags:      pq.StringArray(req.Tags),
	}

	var (
		sub  *subscription.Subscription
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.customerRepo.ExistsByEmail(ctx, email, 0)
		if err != nil {
			return fmt.Errorf("failed to check customer existence: %w", err)
		}
		if exists {
			return xerrors.Conflict("customer with email %s already exists", email)
		}

		if err := s.customerRepo.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}

		sub, logs, err = s.provisionFreePlan(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.logger.Info("customer created",
		zap.Int64("customer_id", c.ID),
		zap.String("customer_reference", c.Reference),
		zap.Bool("free_subscription", sub != nil),
	)

	return &customer.CreateCustomerResponse{Customer: c, Subscription: sub}, nil
}

// provisionFreePlan is a system action; a missing free plan is not an error.
func (s *CustomerService) provisionFreePlan(ctx context.Context, customerID int64) (*subscription.Subscription, []audit.UsageLog, error) {
	if s.freePlanName == "" {
		return nil, nil, nil
	}
	free, err := s.planRepo.FindByName(ctx, s.freePlanName)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		s.logger.Warn("free plan not found, skipping provisioning", zap.String("plan", s.freePlanName))
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find free plan: %w", err)
	}
	return s.subscriptions.Provision(ctx, customerID, free.ID, subscription.CycleMonthly)
}

// UpdateCustomer applies a partial update
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	var c *customer.Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.customerRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Email != nil {
			email := customer.NormalizeEmail(*req.Email)
			if email == "" {
				return xerrors.Validation("email cannot be empty")
			}
			if email != c.Email {
				exists, err := s.customerRepo.ExistsByEmail(ctx, email, c.ID)
				if err != nil {
					return fmt.Errorf("failed to check customer existence: %w", err)
				}
				if exists {
					return xerrors.Conflict("customer with email %s already exists", email)
				}
				c.Email = email
			}
		}
		if req.FullName != nil {
			name := strings.TrimSpace(*req.FullName)
			if name == "" {
				return xerrors.Validation("full name cannot be empty")
			}
			c.FullName = name
		}
		if req.Phone != nil {
			c.Phone = nullString(*req.Phone)
		}
		if req.Company != nil {
			c.Company = nullString(*req.Company)
		}
		if req.Notes != nil {
			c.Notes = nullString(*req.Notes)
		}
		if req.Tags != nil {
			c.Tags = pq.StringArray(req.Tags)
		}

		if err := s.customerRepo.Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer updated", zap.Int64("customer_id", c.ID))
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

// GetCustomerDetails returns a customer with its active subscription, plan and
// last payments.
func (s *CustomerService) GetCustomerDetails(ctx context.Context, email string) (*customer.Details, error) {
	email = customer.NormalizeEmail(email)
	if email == "" {
		return nil, xerrors.Validation("email is required")
	}

	c, err := s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	details := &customer.Details{Customer: c}

	sub, err := s.subscriptions.GetActiveSubscription(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		details.Subscription = sub
		p, err := s.planRepo.FindByID(ctx, sub.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
		details.Plan = p
	}

	payments, err := s.paymentRepo.ListRecentByCustomer(ctx, c.ID, recentPaymentsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	details.RecentPayments = payments

	return details, nil
}

// ListCustomers lists customers with their active plan, newest first
func (s *CustomerService) ListCustomers(ctx context.Context, filters *customer.ListFilters) (*customer.ListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)
	filters.Search = strings.TrimSpace(filters.Search)

	customers, total, err := s.customerRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	active, err := s.subscriptions.ActiveByCustomers(ctx, lo.Map(customers, func(c customer.Customer, _ int) int64 {
		return c.ID
	}))
	if err != nil {
		return nil, err
	}

	planNames := map[int64]string{}
	items := make([]customer.ListItem, 0, len(customers))
	for _, c := range customers {
		item := customer.ListItem{Customer: c}
		if sub, ok := active[c.ID]; ok {
			item.SubscriptionStatus = sub.Status
			name, ok := planNames[sub.PlanID]
			if !ok {
				p, err := s.planRepo.FindByID(ctx, sub.PlanID)
				switch {
				case err == nil:
					name = p.Name
				case !xerrors.Is(err, xerrors.ErrNotFound):
					return nil, fmt.Errorf("failed to load plan: %w", err)
				}
				planNames[sub.PlanID] = name
			}
			item.PlanName = name
		}
		items = append(items, item)
	}

	return &customer.ListResponse{
		Customers:  items,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

// ListUsageLogs returns a customer's audit trail, newest first
func (s *CustomerService) ListUsageLogs(ctx context.Context, customerID int64, filters *audit.ListFilters) (*audit.ListResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	filters.CustomerID = &customerID
	return s.audit.List(ctx, filters)
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
