// internal/app/router.go
package app

import (
	"net/http"
	"time"

	authHandler "billing-service/internal/handlers/auth"
	customerHandler "billing-service/internal/handlers/customer"
	paymentHandler "billing-service/internal/handlers/payment"
	planHandler "billing-service/internal/handlers/plan"
	reportHandler "billing-service/internal/handlers/report"
	subscriptionHandler "billing-service/internal/handlers/subscription"
	wsHandler "billing-service/internal/handlers/websocket"
	"billing-service/internal/middleware"
	"billing-service/internal/pkg/metrics"
	"billing-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

type Handlers struct {
	AuthHandler         *authHandler.AuthHandler
	PlanHandler         *planHandler.PlanHandler
	CustomerHandler     *customerHandler.CustomerHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	PaymentHandler      *paymentHandler.PaymentHandler
	ReportHandler       *reportHandler.ReportHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *session.RateLimiter
	Metrics             *metrics.Metrics
}

// RouteLimits caps unauthenticated traffic per client IP.
type RouteLimits struct {
	PublicRequests int
	PublicWindow   time.Duration
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers, limits RouteLimits) {
	api := r.Group("/api/v1")

	publicLimit := middleware.RateLimit(h.RateLimiter, "public", int64(limits.PublicRequests), limits.PublicWindow, logger)
	loginLimit := middleware.RateLimit(h.RateLimiter, "login", loginRateLimit, loginRateWindow, logger)

	// ==================== Health & Metrics ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public ====================
	public := api.Group("")
	public.Use(publicLimit)
	{
		public.GET("/plans", h.PlanHandler.ListActivePlans)
		public.GET("/subscriptions/status", h.SubscriptionHandler.CheckStatus) // ?email=xxx
	}

	api.POST("/auth/login", loginLimit, h.AuthHandler.Login)

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Plan Catalog ====================
	plans := api.Group("/admin/plans")
	plans.Use(h.AuthMiddleware.Auth())
	{
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:id", h.PlanHandler.GetPlan)

		// Admin role only
		adminOnly := plans.Group("")
		adminOnly.Use(h.AuthMiddleware.RequireRole("admin"))
		{
			adminOnly.POST("", h.PlanHandler.CreatePlan)
			adminOnly.PUT("/:id", h.PlanHandler.UpdatePlan)
			adminOnly.PATCH("/:id/active", h.PlanHandler.SetPlanActive)
			adminOnly.DELETE("/:id", h.PlanHandler.DeletePlan)
		}
	}

	// ==================== Customers ====================
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.Auth())
	{
		customers.GET("", h.CustomerHandler.ListCustomers)
		customers.GET("/details", h.CustomerHandler.GetCustomerDetails) // ?email=xxx
		customers.GET("/:id", h.CustomerHandler.GetCustomer)
		customers.GET("/:id/usage-logs", h.CustomerHandler.ListUsageLogs)
		customers.POST("", h.CustomerHandler.CreateCustomer)
		customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
	}

	// ==================== Subscriptions ====================
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(h.AuthMiddleware.Auth())
	{
		subscriptions.GET("", h.SubscriptionHandler.ListSubscriptions)
		subscriptions.GET("/:id", h.SubscriptionHandler.GetSubscription)
		subscriptions.POST("", h.SubscriptionHandler.CreateSubscription)

		// Lifecycle
		subscriptions.POST("/:id/cancel", h.SubscriptionHandler.CancelSubscription)
		subscriptions.POST("/:id/change-plan", h.SubscriptionHandler.ChangePlan)
		subscriptions.POST("/:id/extend", h.SubscriptionHandler.ExtendSubscription)
	}

	// ==================== Payments ====================
	payments := api.Group("/payments")
	payments.Use(h.AuthMiddleware.Auth())
	{
		payments.GET("", h.PaymentHandler.ListPayments)
		payments.GET("/:id", h.PaymentHandler.GetPayment)
		payments.POST("", h.PaymentHandler.ProcessPayment)
		payments.POST("/record", h.PaymentHandler.RecordPayment)
		payments.POST("/:id/complete", h.PaymentHandler.CompletePayment)
	}

	// ==================== Reports ====================
	reports := api.Group("/reports")
	reports.Use(h.AuthMiddleware.Auth())
	{
		reports.GET("/dashboard", h.ReportHandler.Dashboard)
		reports.GET("/weekly", h.ReportHandler.Weekly)
		reports.GET("/export", h.ReportHandler.Export) // ?type=&from=&to=&format=
	}

	// ==================== WebSocket Admin ====================
	wsAdmin := api.Group("/ws")
	wsAdmin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		wsAdmin.GET("/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
