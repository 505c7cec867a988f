// internal/service/payment/payment_service.go
package payment

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
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/metrics"
	"billing-service/internal/pkg/pagination"
	"billing-service/internal/pkg/reference"
	auditsvc "billing-service/internal/service/audit"
	subscriptionsvc "billing-service/internal/service/subscription"

	"go.uber.org/zap"
)

const defaultCurrency = "USD"

type PaymentService struct {
	paymentRepo      payment.Repository
	customerRepo     customer.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	subscriptions    *subscriptionsvc.SubscriptionService
	tx               domain.Transactor
	audit            *auditsvc.Writer
	metrics          *metrics.Metrics
	clock            clock.Clock
	logger           *zap.Logger
}

func NewPaymentService(
	paymentRepo payment.Repository,
	customerRepo customer.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	subscriptions *subscriptionsvc.SubscriptionService,
	tx domain.Transactor,
	audit *auditsvc.Writer,
	m *metrics.Metrics,
	clk clock.Clock,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		customerRepo:     customerRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		subscriptions:    subscriptions,
		tx:               tx,
		audit:            audit,
		metrics:          m,
		clock:            clk,
		logger:           logger,
	}
}

// ProcessPayment records a completed payment and, when it is linked to a
// subscription, extends that subscription by one billing period. Both happen
// in one transaction.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *payment.ProcessPaymentRequest) (*payment.Payment, error) {
	if err := payment.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, xerrors.Validation("invalid payment method %q", req.Method)
	}

	var (
		p    *payment.Payment
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.newPayment(ctx, req, payment.StatusCompleted)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		logs, err = s.applyCompletion(ctx, p)
		return err
	})
	if err != nil {
		s.metrics.RecordPayment("rejected", req.Currency, 0)
		return nil, err
	}

	s.audit.Publish(logs)
	s.recordMetrics(p)
	s.logger.Info("payment processed",
		zap.Int64("payment_id", p.ID),
		zap.String("reference", p.Reference),
		zap.Int64("customer_id", p.CustomerID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("currency", p.Currency),
	)
	return p, nil
}

// RecordPayment enters a pending or failed payment without side effects
func (s *PaymentService) RecordPayment(ctx context.Context, req *payment.RecordPaymentRequest) (*payment.Payment, error) {
	if req.Status != payment.StatusPending && req.Status != payment.StatusFailed {
		return nil, xerrors.Validation("recorded payments must be pending or failed")
	}
	if err := payment.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, xerrors.Validation("invalid payment method %q", req.Method)
	}

	var p *payment.Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.newPayment(ctx, &req.ProcessPaymentRequest, req.Status)
		if err != nil {
			return err
		}
		if req.Status == payment.StatusFailed {
			reason := strings.TrimSpace(req.FailureReason)
			p.FailureReason = sql.NullString{String: reason, Valid: reason != ""}
		}
		if err := s.paymentRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordMetrics(p)
	s.logger.Info("payment recorded",
		zap.Int64("payment_id", p.ID),
		zap.String("status", string(p.Status)),
	)
	return p, nil
}

// CompletePayment finalizes a pending payment and applies its side effects
func (s *PaymentService) CompletePayment(ctx context.Context, id int64) (*payment.Payment, error) {
	var (
		p    *payment.Payment
		logs []audit.UsageLog
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.paymentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Complete(); err != nil {
			return err
		}
		p.PaymentDate = s.clock.Now()
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		logs, err = s.applyCompletion(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.recordMetrics(p)
	s.logger.Info("payment completed", zap.Int64("payment_id", p.ID))
	return p, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*payment.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

// ListPayments lists payments by payment date, newest first
func (s *PaymentService) ListPayments(ctx context.Context, filters *payment.ListFilters) (*payment.ListResponse, error) {
	filters.Page, filters.PageSize = pagination.Normalize(filters.Page, filters.PageSize)
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, xerrors.Validation("to date cannot be before from date")
	}

	payments, total, err := s.paymentRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	names := map[int64]string{}
	items := make([]payment.ListItem, 0, len(payments))
	for _, p := range payments {
		name, ok := names[p.CustomerID]
		if !ok {
			c, err := s.customerRepo.FindByID(ctx, p.CustomerID)
			switch {
			case err == nil:
				name = c.FullName
			case !xerrors.Is(err, xerrors.ErrNotFound):
				return nil, fmt.Errorf("failed to load customer: %w", err)
			}
			names[p.CustomerID] = name
		}
		items = append(items, payment.ListItem{Payment: p, CustomerName: name})
	}

	return &payment.ListResponse{
		Payments:   items,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

// newPayment checks the references of req and builds the row.
func (s *PaymentService) newPayment(ctx context.Context, req *payment.ProcessPaymentRequest, status payment.Status) (*payment.Payment, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	p := &payment.Payment{
		Reference:     reference.New(reference.Payment),
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		PaymentDate:   s.clock.Now(),
		Method:        req.Method,
		Status:        status,
		TransactionID: strings.TrimSpace(req.TransactionID),
	}
	if p.TransactionID == "" {
		p.TransactionID = reference.New(reference.Transaction)
	}

	if req.SubscriptionID != nil {
		sub, err := s.subscriptionRepo.FindByID(ctx, *req.SubscriptionID)
		if err != nil {
			return nil, err
		}
		if sub.CustomerID != req.CustomerID {
			return nil, xerrors.Validation("subscription %d does not belong to customer %d", sub.ID, req.CustomerID)
		}
		p.SubscriptionID = sql.NullInt64{Int64: sub.ID, Valid: true}

		if p.Currency == "" {
			if pl, err := s.planRepo.FindByID(ctx, sub.PlanID); err == nil {
				p.Currency = pl.Currency
			}
		}
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	return p, nil
}

func (s *PaymentService) applyCompletion(ctx context.Context, p *payment.Payment) ([]audit.UsageLog, error) {
	if !p.HasSubscription() {
		return nil, nil
	}
	sub, logs, err := s.subscriptions.ApplyCompletedPayment(ctx, p.SubscriptionID.Int64)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription renewed by payment",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("payment_id", p.ID),
		zap.Time("end_date", sub.EndDate),
		zap.String("status", string(sub.Status)),
	)
	return logs, nil
}

func (s *PaymentService) recordMetrics(p *payment.Payment) {
	amount, _ := p.Amount.Float64()
	s.metrics.RecordPayment(string(p.Status), p.Currency, amount)
}
