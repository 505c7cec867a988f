package report

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/report"
	"billing-service/internal/pkg/clock"
	service "billing-service/internal/service/report"
	"billing-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	clk := &clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)

	ann := store.SeedCustomer("Ann", "ann@example.com")
	require.NoError(t, store.Payments().Create(context.Background(), &payment.Payment{
		Reference: "PAY-1", CustomerID: ann.ID, Amount: decimal.NewFromInt(12), Currency: "USD",
		PaymentDate: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), Method: payment.MethodCard, Status: payment.StatusCompleted,
	}))

	h := NewReportHandler(service.NewReportService(store.Reports(), clk, zap.NewNop()), zap.NewNop())
	r := testutil.NewRouter()
	r.GET("/reports/dashboard", h.Dashboard)
	r.GET("/reports/weekly", h.Weekly)
	r.GET("/reports/export", h.Export)
	return r
}

func TestDashboardAndWeekly(t *testing.T) {
	r := setup(t)

	w := testutil.Do(t, r, http.MethodGet, "/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats report.DashboardStats
	testutil.Decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.TotalCustomers)
	assert.Len(t, stats.RevenueTrend, 6)

	w = testutil.Do(t, r, http.MethodGet, "/reports/weekly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var weekly report.WeeklySummary
	testutil.Decode(t, w, &weekly)
	assert.Equal(t, "12", weekly.WeeklyRevenue.String())
}

func TestExport_JSON(t *testing.T) {
	r := setup(t)

	w := testutil.Do(t, r, http.MethodGet, "/reports/export?type=customers", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), "ann@example.com")
}

func TestExport_CSV(t *testing.T) {
	r := setup(t)

	w := testutil.Do(t, r, http.MethodGet, "/reports/export?type=revenue&format=csv&from=2024-01-01&to=2024-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="revenue_`)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "month,total_revenue,payment_count", lines[0])
	assert.Equal(t, "2024-06,12,1", lines[1])
}

func TestExport_Rejections(t *testing.T) {
	r := setup(t)

	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/reports/export", nil).Code)
	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/reports/export?type=invoices", nil).Code)
	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/reports/export?type=payments&format=xml", nil).Code)
	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/reports/export?type=payments&from=2024-06-30&to=2024-06-01", nil).Code)
}
