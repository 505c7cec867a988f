package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	auditsvc "billing-service/internal/service/audit"
	subscriptionsvc "billing-service/internal/service/subscription"
	"billing-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(now time.Time) (*CustomerService, *testutil.Store) {
	clk := &clock.Fixed{T: now}
	store := testutil.NewStore(clk)
	writer := auditsvc.NewWriter(store.UsageLogs(), nil, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(store.Subscriptions(), store.Plans(), store.Customers(), store, writer, clk, zap.NewNop())
	svc := NewCustomerService(store.Customers(), store.Plans(), store.Payments(), subs, store, writer, "Free", zap.NewNop())
	return svc, store
}

func TestCreateCustomer_ProvisionsFreePlan(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	free := store.SeedPlan("Free", 0, 0)

	res, err := svc.CreateCustomer(context.Background(), &customer.CreateCustomerRequest{
		FullName: " Ann Lee ",
		Email:    "  Ann@Example.COM ",
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", res.Customer.Email)
	assert.Equal(t, "Ann Lee", res.Customer.FullName)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, free.ID, res.Subscription.PlanID)
	assert.Equal(t, subscription.StatusActive, res.Subscription.Status)
	assert.Equal(t, subscription.CycleMonthly, res.Subscription.BillingCycle)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), res.Subscription.EndDate)
	assert.Equal(t, 1, store.UsageLogCount(audit.FeatureStatusChange))
}

func TestCreateCustomer_WithoutFreePlan(t *testing.T) {
	svc, _ := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))

	res, err := svc.CreateCustomer(context.Background(), &customer.CreateCustomerRequest{FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, res.Customer.ID)
	assert.Nil(t, res.Subscription)
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store.SeedPlan("Free", 0, 0)

	_, err := svc.CreateCustomer(ctx, &customer.CreateCustomerRequest{FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, &customer.CreateCustomerRequest{FullName: "Other Ann", Email: "ANN@example.com"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
	assert.Equal(t, 1, store.UsageLogCount(audit.FeatureStatusChange))
}

func TestUpdateCustomer(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	ann := store.SeedCustomer("Ann", "ann@example.com")
	store.SeedCustomer("Bob", "bob@example.com")

	taken := "BOB@example.com"
	_, err := svc.UpdateCustomer(ctx, ann.ID, &customer.UpdateCustomerRequest{Email: &taken})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	email, company := " Ann.Lee@Example.com", "Acme"
	got, err := svc.UpdateCustomer(ctx, ann.ID, &customer.UpdateCustomerRequest{Email: &email, Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "ann.lee@example.com", got.Email)
	assert.Equal(t, "Acme", got.Company.String)
	assert.Equal(t, "Ann", got.FullName)

	_, err = svc.UpdateCustomer(ctx, 404, &customer.UpdateCustomerRequest{Company: &company})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestGetCustomerDetails(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store.SeedPlan("Free", 0, 0)

	res, err := svc.CreateCustomer(ctx, &customer.CreateCustomerRequest{FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.Payments().Create(ctx, &payment.Payment{
			Reference:   "PAY-" + string(rune('a'+i)),
			CustomerID:  res.Customer.ID,
			Amount:      decimal.NewFromInt(5),
			Currency:    "USD",
			PaymentDate: time.Date(2024, 5, 1+i, 0, 0, 0, 0, time.UTC),
			Method:      payment.MethodCard,
			Status:      payment.StatusCompleted,
		}))
	}

	details, err := svc.GetCustomerDetails(ctx, "ANN@example.com")
	require.NoError(t, err)
	require.NotNil(t, details.Subscription)
	require.NotNil(t, details.Plan)
	assert.Equal(t, "Free", details.Plan.Name)
	require.Len(t, details.RecentPayments, 10)
	assert.Equal(t, 12, details.RecentPayments[0].PaymentDate.Day(), "newest first")

	_, err = svc.GetCustomerDetails(ctx, "missing@example.com")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestListCustomers_Enriched(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store.SeedPlan("Free", 0, 0)

	_, err := svc.CreateCustomer(ctx, &customer.CreateCustomerRequest{FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	store.SeedCustomer("Bob", "bob@example.com")

	res, err := svc.ListCustomers(ctx, &customer.ListFilters{})
	require.NoError(t, err)
	require.Len(t, res.Customers, 2)
	assert.Equal(t, int64(2), res.Total)

	byEmail := map[string]customer.ListItem{}
	for _, item := range res.Customers {
		byEmail[item.Email] = item
	}
	assert.Equal(t, "Free", byEmail["ann@example.com"].PlanName)
	assert.Equal(t, subscription.StatusActive, byEmail["ann@example.com"].SubscriptionStatus)
	assert.Empty(t, byEmail["bob@example.com"].PlanName)
}

func TestListCustomers_LapsedActiveShownWithoutPlan(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	pro := store.SeedPlan("Pro", 10, 100)
	ann := store.SeedCustomer("Ann", "ann@example.com")
	bob := store.SeedCustomer("Bob", "bob@example.com")
	store.SeedSubscription(subscription.Subscription{
		CustomerID: ann.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		NextBillingDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	lapsed := store.SeedSubscription(subscription.Subscription{
		CustomerID: bob.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		NextBillingDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})

	res, err := svc.ListCustomers(ctx, &customer.ListFilters{})
	require.NoError(t, err)
	byEmail := map[string]customer.ListItem{}
	for _, item := range res.Customers {
		byEmail[item.Email] = item
	}
	assert.Equal(t, "Pro", byEmail["ann@example.com"].PlanName)
	assert.Empty(t, byEmail["bob@example.com"].PlanName)
	assert.Empty(t, byEmail["bob@example.com"].SubscriptionStatus)

	stored, err := store.Subscriptions().FindByID(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, stored.Status)
	assert.Equal(t, 1, store.UsageLogCount(audit.FeatureStatusChange))
}

// brokenPlans fails every plan lookup with a non-NotFound error.
type brokenPlans struct {
	plan.Repository
	err error
}

func (b brokenPlans) FindByID(context.Context, int64) (*plan.SubscriptionPlan, error) {
	return nil, b.err
}

func TestListCustomers_PlanLookupErrorReturned(t *testing.T) {
	clk := &clock.Fixed{T: time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)}
	store := testutil.NewStore(clk)
	pro := store.SeedPlan("Pro", 10, 100)
	ann := store.SeedCustomer("Ann", "ann@example.com")
	store.SeedSubscription(subscription.Subscription{
		CustomerID: ann.ID, PlanID: pro.ID, Status: subscription.StatusActive, BillingCycle: subscription.CycleMonthly,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		NextBillingDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	dbErr := errors.New("connection reset")
	writer := auditsvc.NewWriter(store.UsageLogs(), nil, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(store.Subscriptions(), store.Plans(), store.Customers(), store, writer, clk, zap.NewNop())
	svc := NewCustomerService(store.Customers(), brokenPlans{Repository: store.Plans(), err: dbErr}, store.Payments(), subs, store, writer, "Free", zap.NewNop())

	_, err := svc.ListCustomers(context.Background(), &customer.ListFilters{})
	assert.ErrorIs(t, err, dbErr)
}

func TestListUsageLogs(t *testing.T) {
	svc, store := newTestService(time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store.SeedPlan("Free", 0, 0)

	res, err := svc.CreateCustomer(ctx, &customer.CreateCustomerRequest{FullName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	logs, err := svc.ListUsageLogs(ctx, res.Customer.ID, &audit.ListFilters{})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "Status changed to active", logs.Logs[0].Details)

	_, err = svc.ListUsageLogs(ctx, 999, &audit.ListFilters{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
