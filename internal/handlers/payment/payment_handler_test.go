package payment

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	auditsvc "billing-service/internal/service/audit"
	service "billing-service/internal/service/payment"
	subscriptionsvc "billing-service/internal/service/subscription"
	"billing-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup() (*gin.Engine, *testutil.Store) {
	clk := &clock.Fixed{T: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	writer := auditsvc.NewWriter(store.UsageLogs(), nil, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(store.Subscriptions(), store.Plans(), store.Customers(), store, writer, clk, zap.NewNop())
	svc := service.NewPaymentService(store.Payments(), store.Customers(), store.Subscriptions(), store.Plans(), subs, store, writer, nil, clk, zap.NewNop())
	h := NewPaymentHandler(svc, zap.NewNop())

	r := testutil.NewRouter()
	r.POST("/payments", h.ProcessPayment)
	r.POST("/payments/record", h.RecordPayment)
	r.GET("/payments", h.ListPayments)
	r.GET("/payments/:id", h.GetPayment)
	r.POST("/payments/:id/complete", h.CompletePayment)
	return r, store
}

func seedActive(store *testutil.Store) (int64, int64) {
	p := store.SeedPlan("Pro", 10, 100)
	c := store.SeedCustomer("Ann", "ann@example.com")
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	sub := store.SeedSubscription(subscription.Subscription{
		CustomerID: c.ID, PlanID: p.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: end.AddDate(0, -1, 0), EndDate: end, NextBillingDate: end,
	})
	return c.ID, sub.ID
}

func TestProcessPayment(t *testing.T) {
	r, store := setup()
	customerID, subID := seedActive(store)

	w := testutil.Do(t, r, http.MethodPost, "/payments", map[string]interface{}{
		"customer_id":     customerID,
		"subscription_id": subID,
		"amount":          "10.00",
		"payment_method":  "card",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p payment.Payment
	testutil.Decode(t, w, &p)
	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.Equal(t, "10", p.Amount.String())

	w = testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/payments/%d", p.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessPayment_Rejections(t *testing.T) {
	r, store := setup()
	customerID, _ := seedActive(store)

	w := testutil.Do(t, r, http.MethodPost, "/payments", map[string]interface{}{"customer_id": customerID, "amount": "0", "payment_method": "card"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, r, http.MethodPost, "/payments", map[string]interface{}{"customer_id": customerID, "amount": "5", "payment_method": "barter"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, r, http.MethodPost, "/payments", map[string]interface{}{"customer_id": 999, "amount": "5", "payment_method": "cash"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordThenComplete(t *testing.T) {
	r, store := setup()
	customerID, subID := seedActive(store)

	w := testutil.Do(t, r, http.MethodPost, "/payments/record", map[string]interface{}{
		"customer_id":     customerID,
		"subscription_id": subID,
		"amount":          "10",
		"payment_method":  "bank_transfer",
		"status":          "pending",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p payment.Payment
	testutil.Decode(t, w, &p)
	assert.Equal(t, payment.StatusPending, p.Status)

	path := fmt.Sprintf("/payments/%d/complete", p.ID)
	w = testutil.Do(t, r, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, testutil.Do(t, r, http.MethodPost, path, nil).Code)

	w = testutil.Do(t, r, http.MethodPost, "/payments/record", map[string]interface{}{
		"customer_id":    customerID,
		"amount":         "10",
		"payment_method": "card",
		"status":         "completed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPayments(t *testing.T) {
	r, store := setup()
	customerID, _ := seedActive(store)
	for i := 0; i < 3; i++ {
		w := testutil.Do(t, r, http.MethodPost, "/payments", map[string]interface{}{"customer_id": customerID, "amount": "5", "payment_method": "cash"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := testutil.Do(t, r, http.MethodGet, "/payments?status=completed&from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list payment.ListResponse
	testutil.Decode(t, w, &list)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, "Ann", list.Payments[0].CustomerName)

	w = testutil.Do(t, r, http.MethodGet, "/payments?from=2024-03-31&to=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, r, http.MethodGet, "/payments?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
