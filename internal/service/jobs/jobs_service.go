// internal/service/jobs/jobs_service.go
package jobs

import (
	"context"
	"fmt"

	"billing-service/internal/domain"
	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/report"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	"billing-service/internal/pkg/metrics"
	auditsvc "billing-service/internal/service/audit"
	reportsvc "billing-service/internal/service/report"
	subscriptionsvc "billing-service/internal/service/subscription"

	"go.uber.org/zap"
)

const (
	JobDaily  = "daily"
	JobWeekly = "weekly"

	DefaultExpiringWindowDays = 7
)

// DailyResult summarizes one run of the expiry check.
type DailyResult struct {
	Expired  int `json:"expired"`
	Expiring int `json:"expiring"`
}

type JobsService struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	subscriptions    *subscriptionsvc.SubscriptionService
	reports          *reportsvc.ReportService
	tx               domain.Transactor
	audit            *auditsvc.Writer
	metrics          *metrics.Metrics
	clock            clock.Clock
	windowDays       int
	logger           *zap.Logger
}

func NewJobsService(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	subscriptions *subscriptionsvc.SubscriptionService,
	reports *reportsvc.ReportService,
	tx domain.Transactor,
	audit *auditsvc.Writer,
	m *metrics.Metrics,
	clk clock.Clock,
	windowDays int,
	logger *zap.Logger,
) *JobsService {
	if windowDays <= 0 {
		windowDays = DefaultExpiringWindowDays
	}
	return &JobsService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		subscriptions:    subscriptions,
		reports:          reports,
		tx:               tx,
		audit:            audit,
		metrics:          m,
		clock:            clk,
		windowDays:       windowDays,
		logger:           logger,
	}
}

// CheckExpiringSubscriptions expires overdue subscriptions, then logs an
// expiring notice for every Active subscription ending within the window,
// today and the last day included.
func (s *JobsService) CheckExpiringSubscriptions(ctx context.Context) (*DailyResult, error) {
	expired, err := s.subscriptions.ReconcileOverdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile overdue subscriptions: %w", err)
	}
	s.metrics.RecordJobItems(JobDaily, "expired", expired)

	today := clock.Today(s.clock)
	until := today.AddDate(0, 0, s.windowDays)

	var logs []audit.UsageLog
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		subs, err := s.subscriptionRepo.FindActiveEndingBetween(ctx, today, until)
		if err != nil {
			return fmt.Errorf("failed to find expiring subscriptions: %w", err)
		}

		planNames := map[int64]string{}
		events := make([]audit.Event, 0, len(subs))
		for i := range subs {
			name, ok := planNames[subs[i].PlanID]
			if !ok {
				p, err := s.planRepo.FindByID(ctx, subs[i].PlanID)
				if err != nil {
					return fmt.Errorf("failed to load plan %d: %w", subs[i].PlanID, err)
				}
				name = p.Name
				planNames[p.ID] = name
			}
			events = append(events, subs[i].ExpiringEvent(name, today))
		}

		logs, err = s.audit.Record(ctx, events...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Publish(logs)
	s.metrics.RecordJobItems(JobDaily, "expiring", len(logs))

	result := &DailyResult{Expired: expired, Expiring: len(logs)}
	s.logger.Info("expiring subscriptions checked",
		zap.Int("expired", result.Expired),
		zap.Int("expiring", result.Expiring),
		zap.Time("window_start", today),
		zap.Time("window_end", until),
	)
	return result, nil
}

// GenerateWeeklyReport computes the trailing week's summary and logs it.
func (s *JobsService) GenerateWeeklyReport(ctx context.Context) (*report.WeeklySummary, error) {
	summary, err := s.reports.WeeklySummary(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("weekly report",
		zap.Int64("new_subscriptions", summary.NewSubscriptions),
		zap.Int64("cancelled_subscriptions", summary.CancelledSubscriptions),
		zap.String("weekly_revenue", summary.WeeklyRevenue.StringFixed(2)),
		zap.Time("period_start", summary.PeriodStart),
		zap.Time("report_date", summary.ReportDate),
	)
	return summary, nil
}

// Run executes a job by name.
func (s *JobsService) Run(ctx context.Context, name string) (interface{}, error) {
	switch name {
	case JobDaily:
		return s.CheckExpiringSubscriptions(ctx)
	case JobWeekly:
		return s.GenerateWeeklyReport(ctx)
	default:
		return nil, fmt.Errorf("unknown job %q", name)
	}
}
