// internal/handlers/customer/customer_handler.go
package customer

import (
	"net/http"
	"strconv"

	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/pkg/response"
	service "billing-service/internal/service/customer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// CreateCustomer registers a customer and provisions the free plan
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req customer.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.customerService.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to create customer", err)
		return
	}

	response.Success(c, http.StatusCreated, "customer created", result)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req customer.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	cust, err := h.customerService.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, "failed to update customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer updated", cust)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cust, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get customer", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", cust)
}

// GetCustomerDetails looks a customer up by email with subscription and recent payments
func (h *CustomerHandler) GetCustomerDetails(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.ValidationError(c, "email is required", nil)
		return
	}

	details, err := h.customerService.GetCustomerDetails(c.Request.Context(), email)
	if err != nil {
		h.fail(c, "failed to get customer details", err)
		return
	}

	response.Success(c, http.StatusOK, "customer details retrieved", details)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), &filters)
	if err != nil {
		h.fail(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// ListUsageLogs returns the audit trail of one customer, newest first
func (h *CustomerHandler) ListUsageLogs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var filters audit.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListUsageLogs(c.Request.Context(), id, &filters)
	if err != nil {
		h.fail(c, "failed to list usage logs", err)
		return
	}

	response.Success(c, http.StatusOK, "usage logs retrieved", result)
}

func (h *CustomerHandler) fail(c *gin.Context, msg string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	response.FromError(c, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid customer ID", err)
		return 0, false
	}
	return id, true
}
