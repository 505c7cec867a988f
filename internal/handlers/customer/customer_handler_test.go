package customer

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/pkg/clock"
	auditsvc "billing-service/internal/service/audit"
	service "billing-service/internal/service/customer"
	subscriptionsvc "billing-service/internal/service/subscription"
	"billing-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup() (*gin.Engine, *testutil.Store) {
	clk := &clock.Fixed{T: time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	writer := auditsvc.NewWriter(store.UsageLogs(), nil, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(store.Subscriptions(), store.Plans(), store.Customers(), store, writer, clk, zap.NewNop())
	svc := service.NewCustomerService(store.Customers(), store.Plans(), store.Payments(), subs, store, writer, "Free", zap.NewNop())
	h := NewCustomerHandler(svc, zap.NewNop())

	r := testutil.NewRouter()
	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/details", h.GetCustomerDetails)
	r.GET("/customers/:id", h.GetCustomer)
	r.PUT("/customers/:id", h.UpdateCustomer)
	r.GET("/customers/:id/usage-logs", h.ListUsageLogs)
	return r, store
}

func TestCreateCustomer_FlowsThroughToDetails(t *testing.T) {
	r, store := setup()
	store.SeedPlan("Free", 0, 0)

	w := testutil.Do(t, r, http.MethodPost, "/customers", map[string]string{
		"full_name": "Ann Lee",
		"email":     "Ann@Example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created customer.CreateCustomerResponse
	testutil.Decode(t, w, &created)
	require.NotNil(t, created.Subscription)

	w = testutil.Do(t, r, http.MethodGet, "/customers/details?email=ann@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var details customer.Details
	testutil.Decode(t, w, &details)
	assert.Equal(t, created.Customer.ID, details.Customer.ID)
	require.NotNil(t, details.Plan)
	assert.Equal(t, "Free", details.Plan.Name)
	assert.Empty(t, details.RecentPayments)

	w = testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/customers/%d/usage-logs", created.Customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs audit.ListResponse
	testutil.Decode(t, w, &logs)
	assert.Equal(t, int64(1), logs.Total)

	w = testutil.Do(t, r, http.MethodGet, "/customers?search=ann", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list customer.ListResponse
	testutil.Decode(t, w, &list)
	require.Len(t, list.Customers, 1)
	assert.Equal(t, "Free", list.Customers[0].PlanName)
}

func TestCreateCustomer_Validation(t *testing.T) {
	r, _ := setup()

	w := testutil.Do(t, r, http.MethodPost, "/customers", map[string]string{"full_name": "Ann", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, r, http.MethodPost, "/customers", map[string]string{"full_name": "Ann", "email": "ann@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = testutil.Do(t, r, http.MethodPost, "/customers", map[string]string{"full_name": "Ann 2", "email": "ANN@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateAndGetCustomer(t *testing.T) {
	r, store := setup()
	c := store.SeedCustomer("Bob", "bob@example.com")
	store.SeedCustomer("Cat", "cat@example.com")

	path := fmt.Sprintf("/customers/%d", c.ID)
	w := testutil.Do(t, r, http.MethodPut, path, map[string]string{"full_name": "Robert"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got customer.Customer
	testutil.Decode(t, w, &got)
	assert.Equal(t, "Robert", got.FullName)

	w = testutil.Do(t, r, http.MethodPut, path, map[string]string{"email": "cat@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCustomerLookups_Errors(t *testing.T) {
	r, _ := setup()

	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/customers/details", nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.Do(t, r, http.MethodGet, "/customers/details?email=x@y.z", nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.Do(t, r, http.MethodGet, "/customers/42", nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.Do(t, r, http.MethodGet, "/customers/42/usage-logs", nil).Code)
	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/customers/zero", nil).Code)
}
