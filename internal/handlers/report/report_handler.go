// internal/handlers/report/report_handler.go
package report

import (
	"fmt"
	"net/http"
	"time"

	"billing-service/internal/domain/report"
	"billing-service/internal/pkg/response"
	service "billing-service/internal/service/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := h.reportService.DashboardStats(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build dashboard", err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard statistics retrieved", stats)
}

func (h *ReportHandler) Weekly(c *gin.Context) {
	summary, err := h.reportService.WeeklySummary(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build weekly summary", err)
		return
	}

	response.Success(c, http.StatusOK, "weekly summary retrieved", summary)
}

// Export returns report rows as JSON, or as a CSV download with format=csv
func (h *ReportHandler) Export(c *gin.Context) {
	var req report.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	export, err := h.reportService.ExportReport(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "failed to export report", err)
		return
	}

	if req.Format != "csv" {
		response.Success(c, http.StatusOK, "report exported", export)
		return
	}

	data, err := h.reportService.RenderCSV(export)
	if err != nil {
		h.fail(c, "failed to render report", err)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", export.Type, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *ReportHandler) fail(c *gin.Context, msg string, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	response.FromError(c, err)
}
