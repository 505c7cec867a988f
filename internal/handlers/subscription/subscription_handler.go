// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"
	"strconv"

	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/response"
	service "billing-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	logger              *zap.Logger
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// ========== Public Endpoints ==========

// CheckStatus reports whether an email has a live subscription
func (h *SubscriptionHandler) CheckStatus(c *gin.Context) {
	status, err := h.subscriptionService.CheckSubscriptionStatus(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.fail(c, "failed to check subscription status", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription status retrieved", status)
}

// ========== Operator Endpoints ==========

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req subscription.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to create subscription", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription created", sub)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	var filters subscription.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), &filters)
	if err != nil {
		h.fail(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.CancelSubscriptionRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "invalid request", err)
			return
		}
	}

	sub, err := h.subscriptionService.CancelSubscription(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.fail(c, "failed to cancel subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription cancelled", sub)
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.subscriptionService.ChangePlan(c.Request.Context(), id, req.PlanID)
	if err != nil {
		h.fail(c, "failed to change plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan changed", result)
}

func (h *SubscriptionHandler) ExtendSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.ExtendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.subscriptionService.ExtendSubscription(c.Request.Context(), id, req.Days)
	if err != nil {
		h.fail(c, "failed to extend subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription extended", result)
}

func (h *SubscriptionHandler) fail(c *gin.Context, msg string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	response.FromError(c, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid subscription ID", err)
		return 0, false
	}
	return id, true
}
