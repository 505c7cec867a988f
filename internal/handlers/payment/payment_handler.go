// internal/handlers/payment/payment_handler.go
package payment

import (
	"net/http"
	"strconv"

	"billing-service/internal/domain/payment"
	"billing-service/internal/pkg/response"
	service "billing-service/internal/service/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// ProcessPayment records a completed payment and extends its subscription
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req payment.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.paymentService.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to process payment", err)
		return
	}

	response.Success(c, http.StatusCreated, "payment processed", p)
}

// RecordPayment enters a pending or failed payment
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req payment.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.paymentService.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to record payment", err)
		return
	}

	response.Success(c, http.StatusCreated, "payment recorded", p)
}

// CompletePayment settles a pending payment
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.paymentService.CompletePayment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to complete payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment completed", p)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get payment", err)
		return
	}

	response.Success(c, http.StatusOK, "payment retrieved", p)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var filters payment.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), &filters)
	if err != nil {
		h.fail(c, "failed to list payments", err)
		return
	}

	response.Success(c, http.StatusOK, "payments retrieved", result)
}

func (h *PaymentHandler) fail(c *gin.Context, msg string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	response.FromError(c, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid payment ID", err)
		return 0, false
	}
	return id, true
}
