// internal/service/report/report_service.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"billing-service/internal/domain/report"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

const (
	trendMonths = 6
	churnWindow = 30
	weekDays    = 7
)

type ReportService struct {
	reportRepo report.Repository
	clock      clock.Clock
	logger     *zap.Logger
}

func NewReportService(reportRepo report.Repository, clk clock.Clock, logger *zap.Logger) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		clock:      clk,
		logger:     logger,
	}
}

// DashboardStats gathers the headline numbers for the back office
func (s *ReportService) DashboardStats(ctx context.Context) (*report.DashboardStats, error) {
	today := clock.Today(s.clock)
	monthStart := clock.MonthStart(today)

	totalCustomers, err := s.reportRepo.CountCustomers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	newCustomers, err := s.reportRepo.CountCustomers(ctx, &monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}
	active, err := s.reportRepo.CountActiveSubscriptions(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count active subscriptions: %w", err)
	}
	cancelled, err := s.reportRepo.CountCancelledSince(ctx, today.AddDate(0, 0, -churnWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count cancellations: %w", err)
	}
	breakdown, err := s.reportRepo.ActivePlanBreakdown(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan breakdown: %w", err)
	}
	trend, err := s.revenueTrend(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	byRevenue, byCustomers := report.GroupByPlan(breakdown)

	return &report.DashboardStats{
		TotalCustomers:      totalCustomers,
		ActiveSubscriptions: active,
		MRR:                 report.MRR(breakdown),
		NewCustomersMonth:   newCustomers,
		ChurnRate:           report.ChurnRate(active, cancelled),
		RevenueByPlan:       byRevenue,
		CustomersByPlan:     byCustomers,
		RevenueTrend:        trend,
	}, nil
}

// revenueTrend sums completed payments per calendar month, oldest first,
// ending with the current month.
func (s *ReportService) revenueTrend(ctx context.Context, current time.Time) ([]report.RevenuePoint, error) {
	points := make([]report.RevenuePoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		from := clock.AddMonths(current, -i)
		to := clock.AddMonths(from, 1)

		total, err := s.reportRepo.SumCompletedPayments(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to sum revenue for %s: %w", from.Format("2006-01"), err)
		}
		points = append(points, report.RevenuePoint{
			Month:   from.Format("Jan 2006"),
			Revenue: total.Round(2),
		})
	}
	return points, nil
}

// WeeklySummary covers the trailing seven days up to today
func (s *ReportService) WeeklySummary(ctx context.Context) (*report.WeeklySummary, error) {
	today := clock.Today(s.clock)
	start := today.AddDate(0, 0, -weekDays)

	created, err := s.reportRepo.CountSubscriptionsCreatedSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to count new subscriptions: %w", err)
	}
	cancelled, err := s.reportRepo.CountCancelledSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to count cancellations: %w", err)
	}
	revenue, err := s.reportRepo.SumCompletedPayments(ctx, start, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to sum weekly revenue: %w", err)
	}

	return &report.WeeklySummary{
		NewSubscriptions:       created,
		CancelledSubscriptions: cancelled,
		WeeklyRevenue:          revenue.Round(2),
		PeriodStart:            start,
		ReportDate:             today,
	}, nil
}

// ExportReport returns the rows of one report type within an optional range
func (s *ReportService) ExportReport(ctx context.Context, req *report.ExportRequest) (*report.Export, error) {
	if !req.Type.Valid() {
		return nil, xerrors.Validation("invalid report type")
	}
	rg := report.DateRange{From: req.From, To: req.To}
	if rg.From != nil && rg.To != nil && rg.To.Before(*rg.From) {
		return nil, xerrors.Validation("to date cannot be before from date")
	}

	var (
		rows  interface{}
		count int
		err   error
	)
	switch req.Type {
	case report.TypeCustomers:
		var r []report.CustomerRow
		r, err = s.reportRepo.ExportCustomers(ctx, rg)
		rows, count = nonNil(r), len(r)
	case report.TypeSubscriptions:
		var r []report.SubscriptionRow
		r, err = s.reportRepo.ExportSubscriptions(ctx, rg)
		rows, count = nonNil(r), len(r)
	case report.TypePayments:
		var r []report.PaymentRow
		r, err = s.reportRepo.ExportPayments(ctx, rg)
		rows, count = nonNil(r), len(r)
	case report.TypeRevenue:
		var r []report.MonthlyRevenueRow
		r, err = s.reportRepo.ExportMonthlyRevenue(ctx, rg)
		rows, count = nonNil(r), len(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", req.Type, err)
	}

	s.logger.Info("report exported",
		zap.String("type", string(req.Type)),
		zap.Int("rows", count),
	)
	return &report.Export{Type: req.Type, Count: count, Rows: rows}, nil
}

// RenderCSV writes the export rows as CSV with a header line.
func (s *ReportService) RenderCSV(export *report.Export) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(export.Rows, &buf); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), nil
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
