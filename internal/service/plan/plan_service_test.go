package plan

import (
	"context"
	"testing"
	"time"

	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (*PlanService, *testutil.Store) {
	store := testutil.NewStore(&clock.Fixed{T: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)})
	return NewPlanService(store.Plans(), store.Subscriptions(), zap.NewNop()), store
}

func TestCreatePlan(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.CreatePlan(ctx, &plan.CreatePlanRequest{
		Name:         "Premium",
		PriceMonthly: decimal.NewFromInt(10),
		PriceYearly:  decimal.NewFromInt(150),
		Features:     []string{"Unlimited habits"},
		MaxHabits:    100,
	})
	require.NoError(t, err)
	assert.NotZero(t, res.Plan.ID)
	assert.Equal(t, "USD", res.Plan.Currency)
	assert.True(t, res.Plan.IsActive)
	assert.Equal(t, []string{plan.YearlyPricingNotice}, res.Notices)

	_, err = svc.CreatePlan(ctx, &plan.CreatePlanRequest{Name: "Premium"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	_, err = svc.CreatePlan(ctx, &plan.CreatePlanRequest{Name: "Broken", MaxGoals: -1})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestUpdatePlan_Revalidates(t *testing.T) {
	svc, store := newTestService()
	p := store.SeedPlan("Basic", 5, 50)

	negative := decimal.NewFromInt(-1)
	_, err := svc.UpdatePlan(context.Background(), p.ID, &plan.UpdatePlanRequest{PriceYearly: &negative})
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	got, err := svc.GetPlan(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.PriceYearly.Equal(decimal.NewFromInt(50)), "failed edit is not persisted")

	goals := 7
	res, err := svc.UpdatePlan(context.Background(), p.ID, &plan.UpdatePlanRequest{MaxGoals: &goals})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Plan.MaxGoals)

	_, err = svc.UpdatePlan(context.Background(), 999, &plan.UpdatePlanRequest{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestListActivePlans_CheapestFirstAndActiveOnly(t *testing.T) {
	svc, store := newTestService()
	store.SeedPlan("Premium", 15, 150)
	store.SeedPlan("Free", 0, 0)
	hidden := store.SeedPlan("Legacy", 3, 30)
	_, err := svc.SetPlanActive(context.Background(), hidden.ID, false)
	require.NoError(t, err)

	plans, err := svc.ListActivePlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Free", plans[0].Name)
	assert.Equal(t, "Premium", plans[1].Name)
}

func TestDeletePlan_InUse(t *testing.T) {
	svc, store := newTestService()
	used := store.SeedPlan("Basic", 5, 50)
	unused := store.SeedPlan("Spare", 1, 10)
	c := store.SeedCustomer("Ana", "ana@example.com")
	store.SeedSubscription(subscription.Subscription{
		CustomerID:   c.ID,
		PlanID:       used.ID,
		Status:       subscription.StatusCancelled,
		BillingCycle: subscription.CycleMonthly,
	})

	err := svc.DeletePlan(context.Background(), used.ID)
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	require.NoError(t, svc.DeletePlan(context.Background(), unused.ID))
	_, err = svc.GetPlan(context.Background(), unused.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
