package plan

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"billing-service/internal/domain/plan"
	"billing-service/internal/pkg/clock"
	service "billing-service/internal/service/plan"
	"billing-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup() (*gin.Engine, *testutil.Store) {
	store := testutil.NewStore(&clock.Fixed{T: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)})
	h := NewPlanHandler(service.NewPlanService(store.Plans(), store.Subscriptions(), zap.NewNop()), zap.NewNop())

	r := testutil.NewRouter()
	r.GET("/plans", h.ListActivePlans)
	r.GET("/admin/plans", h.ListPlans)
	r.GET("/admin/plans/:id", h.GetPlan)
	r.POST("/admin/plans", h.CreatePlan)
	r.PUT("/admin/plans/:id", h.UpdatePlan)
	r.PATCH("/admin/plans/:id/active", h.SetPlanActive)
	r.DELETE("/admin/plans/:id", h.DeletePlan)
	return r, store
}

func TestCreateAndGetPlan(t *testing.T) {
	r, _ := setup()

	w := testutil.Do(t, r, http.MethodPost, "/admin/plans", map[string]interface{}{
		"name":          "Premium",
		"price_monthly": "10",
		"price_yearly":  "100",
		"features":      []string{"Unlimited habits"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created plan.SaveResult
	testutil.Decode(t, w, &created)
	assert.Equal(t, "Premium", created.Plan.Name)

	w = testutil.Do(t, r, http.MethodGet, fmt.Sprintf("/admin/plans/%d", created.Plan.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got plan.SubscriptionPlan
	testutil.Decode(t, w, &got)
	assert.Equal(t, []string{"Unlimited habits"}, []string(got.Features))

	w = testutil.Do(t, r, http.MethodPost, "/admin/plans", map[string]interface{}{"name": "Premium"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePlan_BadBody(t *testing.T) {
	r, _ := setup()

	w := testutil.Do(t, r, http.MethodPost, "/admin/plans", map[string]interface{}{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, testutil.Decode(t, w, nil).Success)
}

func TestGetPlan_Errors(t *testing.T) {
	r, _ := setup()

	assert.Equal(t, http.StatusBadRequest, testutil.Do(t, r, http.MethodGet, "/admin/plans/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.Do(t, r, http.MethodGet, "/admin/plans/99", nil).Code)
}

func TestSetPlanActive_HidesFromPublicList(t *testing.T) {
	r, store := setup()
	basic := store.SeedPlan("Basic", 5, 50)
	store.SeedPlan("Free", 0, 0)

	w := testutil.Do(t, r, http.MethodPatch, fmt.Sprintf("/admin/plans/%d/active", basic.ID), map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "plan deactivated", testutil.Decode(t, w, nil).Message)

	w = testutil.Do(t, r, http.MethodGet, "/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []plan.SubscriptionPlan
	testutil.Decode(t, w, &plans)
	require.Len(t, plans, 1)
	assert.Equal(t, "Free", plans[0].Name)
}

func TestDeletePlan(t *testing.T) {
	r, store := setup()
	p := store.SeedPlan("Basic", 5, 50)

	path := fmt.Sprintf("/admin/plans/%d", p.ID)
	assert.Equal(t, http.StatusOK, testutil.Do(t, r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.Do(t, r, http.MethodDelete, path, nil).Code)
}
