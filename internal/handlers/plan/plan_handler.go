// internal/handlers/plan/plan_handler.go
package plan

import (
	"net/http"
	"strconv"

	"billing-service/internal/domain/plan"
	"billing-service/internal/pkg/response"
	service "billing-service/internal/service/plan"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlanHandler struct {
	planService *service.PlanService
	logger      *zap.Logger
}

func NewPlanHandler(planService *service.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger,
	}
}

// ========== Public Endpoints ==========

// ListActivePlans returns the subscribable plans, cheapest first
func (h *PlanHandler) ListActivePlans(c *gin.Context) {
	plans, err := h.planService.ListActivePlans(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list active plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", plans)
}

// ========== Operator Endpoints ==========

// ListPlans retrieves plans with filters
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var filters plan.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.planService.ListPlans(c.Request.Context(), &filters)
	if err != nil {
		h.fail(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", result)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.planService.GetPlan(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", p)
}

// ========== Admin Only Endpoints ==========

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req plan.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.planService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to create plan", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan created", result)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req plan.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.planService.UpdatePlan(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, "failed to update plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan updated", result)
}

// SetPlanActive activates or deactivates a plan
func (h *PlanHandler) SetPlanActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req plan.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.planService.SetPlanActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		h.fail(c, "failed to update plan status", err)
		return
	}

	msg := "plan deactivated"
	if p.IsActive {
		msg = "plan activated"
	}
	response.Success(c, http.StatusOK, msg, p)
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan deleted", nil)
}

func (h *PlanHandler) fail(c *gin.Context, msg string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	response.FromError(c, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid plan ID", err)
		return 0, false
	}
	return id, true
}
