// internal/app/container.go
package app

import (
	"context"
	"fmt"

	"billing-service/internal/config"
	"billing-service/internal/db"
	"billing-service/internal/pkg/clock"
	"billing-service/internal/pkg/metrics"
	"billing-service/internal/repository/postgres"
	auditsvc "billing-service/internal/service/audit"
	customersvc "billing-service/internal/service/customer"
	jobssvc "billing-service/internal/service/jobs"
	paymentsvc "billing-service/internal/service/payment"
	plansvc "billing-service/internal/service/plan"
	reportsvc "billing-service/internal/service/report"
	subscriptionsvc "billing-service/internal/service/subscription"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Container holds the billing core shared by the API server and the jobs
// command: the Postgres pool, repositories and services.
type Container struct {
	Pool    *pgxpool.Pool
	DB      *postgres.DB
	Metrics *metrics.Metrics

	AdminRepo *postgres.AdminRepository

	Audit         *auditsvc.Writer
	Plans         *plansvc.PlanService
	Subscriptions *subscriptionsvc.SubscriptionService
	Customers     *customersvc.CustomerService
	Payments      *paymentsvc.PaymentService
	Reports       *reportsvc.ReportService
	Jobs          *jobssvc.JobsService
}

// NewLogger builds a production logger, or a development one for APP_ENV=development.
func NewLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Build connects to Postgres, applies migrations when enabled and wires
// every billing service.
func Build(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Container, error) {
	// ----- PostgreSQL -----
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}

	pool, err := db.ConnectPostgres(ctx, db.PostgresConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("postgres connected", zap.Int32("max_conns", pool.Config().MaxConns))

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	planRepo := postgres.NewPlanRepository(dbWrapper)
	customerRepo := postgres.NewCustomerRepository(dbWrapper)
	subscriptionRepo := postgres.NewSubscriptionRepository(dbWrapper)
	paymentRepo := postgres.NewPaymentRepository(dbWrapper)
	usageLogRepo := postgres.NewUsageLogRepository(dbWrapper)
	reportRepo := postgres.NewReportRepository(dbWrapper)
	adminRepo := postgres.NewAdminRepository(dbWrapper)

	// ----- Services -----
	clk := clock.System{}
	auditWriter := auditsvc.NewWriter(usageLogRepo, m, logger)

	planService := plansvc.NewPlanService(planRepo, subscriptionRepo, logger)
	subscriptionService := subscriptionsvc.NewSubscriptionService(
		subscriptionRepo,
		planRepo,
		customerRepo,
		dbWrapper,
		auditWriter,
		clk,
		logger,
	)
	customerService := customersvc.NewCustomerService(
		customerRepo,
		planRepo,
		paymentRepo,
		subscriptionService,
		dbWrapper,
		auditWriter,
		cfg.FreePlanName,
		logger,
	)
	paymentService := paymentsvc.NewPaymentService(
		paymentRepo,
		customerRepo,
		subscriptionRepo,
		planRepo,
		subscriptionService,
		dbWrapper,
		auditWriter,
		m,
		clk,
		logger,
	)
	reportService := reportsvc.NewReportService(reportRepo, clk, logger)
	jobsService := jobssvc.NewJobsService(
		subscriptionRepo,
		planRepo,
		subscriptionService,
		reportService,
		dbWrapper,
		auditWriter,
		m,
		clk,
		cfg.ExpiringWindowDays,
		logger,
	)

	return &Container{
		Pool:          pool,
		DB:            dbWrapper,
		Metrics:       m,
		AdminRepo:     adminRepo,
		Audit:         auditWriter,
		Plans:         planService,
		Subscriptions: subscriptionService,
		Customers:     customerService,
		Payments:      paymentService,
		Reports:       reportService,
		Jobs:          jobsService,
	}, nil
}

func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
