// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"billing-service/internal/config"
	"billing-service/internal/db"
	authHandler "billing-service/internal/handlers/auth"
	customerHandler "billing-service/internal/handlers/customer"
	paymentHandler "billing-service/internal/handlers/payment"
	planHandler "billing-service/internal/handlers/plan"
	reportHandler "billing-service/internal/handlers/report"
	subscriptionHandler "billing-service/internal/handlers/subscription"
	wsHandler "billing-service/internal/handlers/websocket"
	"billing-service/internal/middleware"
	"billing-service/internal/pkg/clock"
	"billing-service/internal/pkg/jwt"
	"billing-service/internal/pkg/session"
	"billing-service/internal/scheduler"
	authUsecase "billing-service/internal/service/auth"
	jobssvc "billing-service/internal/service/jobs"
	"billing-service/internal/websocket"
	wsHandlers "billing-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg        config.AppConfig
	logger     *zap.Logger
	core       *Container
	redis      redis.UniversalClient
	hub        *websocket.Hub
	scheduler  *scheduler.Scheduler
	httpServer *http.Server
	stopHub    context.CancelFunc
}

// NewServer wires the billing core, Redis-backed auth, the live feed, the job
// scheduler and the HTTP router. Nothing listens until Start.
func NewServer(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	core, err := Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s.core = core

	// ----- Redis -----
	redisClient, err := db.NewRedis(ctx, db.RedisConfig{
		Addresses: []string{cfg.RedisAddr},
		Password:  cfg.RedisPass,
		DB:        cfg.RedisDB,
		PoolSize:  10,
	})
	if err != nil {
		core.Close()
		return nil, err
	}
	s.redis = redisClient
	logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(cfg.JWT)
	if err != nil {
		s.closeStores()
		return nil, fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	authService := authUsecase.NewAuthService(
		core.AdminRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		clock.System{},
		logger,
	)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, logger)
	hub.RegisterHandler(wsHandlers.NewUsageLogHandler(core.Audit))
	core.Audit.SetBroadcaster(hub)
	authService.SetNotifier(hub)
	s.hub = hub

	// ----- Bootstrap Operator -----
	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = authService.EnsureBootstrapAdmin(bootCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName)
	cancel()
	if err != nil {
		// Startup continues; operators can still be provisioned in the database.
		logger.Error("failed to bootstrap admin", zap.Error(err))
	}

	// ----- Scheduler -----
	sched, err := scheduler.New(core.Jobs, []scheduler.Job{
		{Name: jobssvc.JobDaily, Spec: cfg.JobDailySpec},
		{Name: jobssvc.JobWeekly, Spec: cfg.JobWeeklySpec},
	}, cfg.JobTimeout, core.Metrics, logger)
	if err != nil {
		s.closeStores()
		return nil, err
	}
	s.scheduler = sched

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:         authHandler.NewAuthHandler(authService, logger),
		PlanHandler:         planHandler.NewPlanHandler(core.Plans, logger),
		CustomerHandler:     customerHandler.NewCustomerHandler(core.Customers, logger),
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(core.Subscriptions, logger),
		PaymentHandler:      paymentHandler.NewPaymentHandler(core.Payments, logger),
		ReportHandler:       reportHandler.NewReportHandler(core.Reports, logger),
		WSHandler:           wsHandler.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(authService),
		RateLimiter:         rateLimiter,
		Metrics:             core.Metrics,
	}

	// ----- Router -----
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger, core.Metrics),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	SetupRouter(engine, logger, handlers, RouteLimits{
		PublicRequests: cfg.PublicRateLimit,
		PublicWindow:   cfg.PublicRateWindow,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start runs the hub and scheduler, then serves HTTP until Shutdown.
func (s *Server) Start() error {
	hubCtx, cancel := context.WithCancel(context.Background())
	s.stopHub = cancel
	go s.hub.Run(hubCtx)

	s.scheduler.Start()

	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, waits for running jobs, closes the live feed and
// releases Postgres and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	s.closeStores()
	return errors.Join(errs...)
}

func (s *Server) closeStores() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	s.core.Close()
}
