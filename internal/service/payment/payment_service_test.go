package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
	"billing-service/internal/pkg/metrics"
	auditsvc "billing-service/internal/service/audit"
	subscriptionsvc "billing-service/internal/service/subscription"
	"billing-service/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc     *PaymentService
	store   *testutil.Store
	metrics *metrics.Metrics
}

func newFixture(now time.Time) *fixture {
	clk := &clock.Fixed{T: now}
	store := testutil.NewStore(clk)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	writer := auditsvc.NewWriter(store.UsageLogs(), m, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(store.Subscriptions(), store.Plans(), store.Customers(), store, writer, clk, zap.NewNop())
	svc := NewPaymentService(store.Payments(), store.Customers(), store.Subscriptions(), store.Plans(), subs, store, writer, m, clk, zap.NewNop())
	return &fixture{svc: svc, store: store, metrics: m}
}

func (f *fixture) seedSubscription(customerID, planID int64, status subscription.Status, end time.Time) *subscription.Subscription {
	return f.store.SeedSubscription(subscription.Subscription{
		CustomerID:      customerID,
		PlanID:          planID,
		Status:          status,
		BillingCycle:    subscription.CycleMonthly,
		StartDate:       end.AddDate(0, -1, 0),
		EndDate:         end,
		NextBillingDate: end,
	})
}

func TestProcessPayment_ExtendsSubscription(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p := f.store.SeedPlan("Pro", 10, 100)
	c := f.store.SeedCustomer("Ann", "ann@example.com")
	sub := f.seedSubscription(c.ID, p.ID, subscription.StatusActive, day(2024, 3, 20))

	got, err := f.svc.ProcessPayment(ctx, &payment.ProcessPaymentRequest{
		CustomerID:     c.ID,
		SubscriptionID: &sub.ID,
		Amount:         decimal.NewFromInt(10),
		Method:         payment.MethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, got.Status)
	assert.Equal(t, "USD", got.Currency)
	assert.Contains(t, got.TransactionID, "TXN-")

	updated, err := f.store.Subscriptions().FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 4, 20), updated.EndDate)
	assert.Equal(t, updated.EndDate, updated.NextBillingDate)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.PaymentsTotal.WithLabelValues("completed")))
}

func TestProcessPayment_ReactivatesExpired(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p := f.store.SeedPlan("Pro", 10, 100)
	c := f.store.SeedCustomer("Ann", "ann@example.com")
	sub := f.seedSubscription(c.ID, p.ID, subscription.StatusExpired, day(2024, 3, 1))

	_, err := f.svc.ProcessPayment(ctx, &payment.ProcessPaymentRequest{
		CustomerID:     c.ID,
		SubscriptionID: &sub.ID,
		Amount:         decimal.NewFromInt(10),
		Method:         payment.MethodCash,
		TransactionID:  "bank-123",
	})
	require.NoError(t, err)

	updated, err := f.store.Subscriptions().FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, updated.Status)
	assert.Equal(t, day(2024, 4, 1), updated.EndDate)
	assert.Equal(t, 1, f.store.UsageLogCount(audit.FeatureStatusChange))
}

func TestProcessPayment_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	c := f.store.SeedCustomer("Ann", "ann@example.com")

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := f.svc.ProcessPayment(context.Background(), &payment.ProcessPaymentRequest{
			CustomerID: c.ID,
			Amount:     amount,
			Method:     payment.MethodCard,
		})
		assert.ErrorIs(t, err, xerrors.ErrValidation)
	}
	assert.Zero(t, f.store.PaymentCount())
}

func TestProcessPayment_SubscriptionOfAnotherCustomer(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	p := f.store.SeedPlan("Pro", 10, 100)
	ann := f.store.SeedCustomer("Ann", "ann@example.com")
	bob := f.store.SeedCustomer("Bob", "bob@example.com")
	sub := f.seedSubscription(bob.ID, p.ID, subscription.StatusActive, day(2024, 3, 20))

	_, err := f.svc.ProcessPayment(context.Background(), &payment.ProcessPaymentRequest{
		CustomerID:     ann.ID,
		SubscriptionID: &sub.ID,
		Amount:         decimal.NewFromInt(10),
		Method:         payment.MethodCard,
	})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
	assert.Zero(t, f.store.PaymentCount())
}

func TestProcessPayment_UnknownReferences(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.ProcessPayment(ctx, &payment.ProcessPaymentRequest{CustomerID: 7, Amount: decimal.NewFromInt(1), Method: payment.MethodCard})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	c := f.store.SeedCustomer("Ann", "ann@example.com")
	missing := int64(42)
	_, err = f.svc.ProcessPayment(ctx, &payment.ProcessPaymentRequest{CustomerID: c.ID, SubscriptionID: &missing, Amount: decimal.NewFromInt(1), Method: payment.MethodCard})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.Zero(t, f.store.PaymentCount())
}

func TestRecordAndCompletePayment(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p := f.store.SeedPlan("Pro", 10, 100)
	c := f.store.SeedCustomer("Ann", "ann@example.com")
	sub := f.seedSubscription(c.ID, p.ID, subscription.StatusActive, day(2024, 3, 20))

	pending, err := f.svc.RecordPayment(ctx, &payment.RecordPaymentRequest{
		ProcessPaymentRequest: payment.ProcessPaymentRequest{
			CustomerID:     c.ID,
			SubscriptionID: &sub.ID,
			Amount:         decimal.NewFromInt(10),
			Method:         payment.MethodBankTransfer,
		},
		Status: payment.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, pending.Status)

	untouched, err := f.store.Subscriptions().FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 20), untouched.EndDate, "recording has no side effects")

	done, err := f.svc.CompletePayment(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, done.Status)

	extended, err := f.store.Subscriptions().FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 4, 20), extended.EndDate)

	_, err = f.svc.CompletePayment(ctx, pending.ID)
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestCompletePayment_FailedNeverCompletes(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	c := f.store.SeedCustomer("Ann", "ann@example.com")

	failed, err := f.svc.RecordPayment(ctx, &payment.RecordPaymentRequest{
		ProcessPaymentRequest: payment.ProcessPaymentRequest{CustomerID: c.ID, Amount: decimal.NewFromInt(10), Method: payment.MethodCard},
		Status:                payment.StatusFailed,
		FailureReason:         "card declined",
	})
	require.NoError(t, err)
	assert.Equal(t, "card declined", failed.FailureReason.String)

	_, err = f.svc.CompletePayment(ctx, failed.ID)
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	stored, err := f.svc.GetPayment(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, stored.Status)
}

func TestListPayments(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	ann := f.store.SeedCustomer("Ann", "ann@example.com")
	bob := f.store.SeedCustomer("Bob", "bob@example.com")

	for _, id := range []int64{ann.ID, bob.ID, ann.ID} {
		_, err := f.svc.ProcessPayment(ctx, &payment.ProcessPaymentRequest{CustomerID: id, Amount: decimal.NewFromInt(3), Method: payment.MethodCard})
		require.NoError(t, err)
	}

	res, err := f.svc.ListPayments(ctx, &payment.ListFilters{CustomerID: &ann.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	for _, item := range res.Payments {
		assert.Equal(t, "Ann", item.CustomerName)
	}

	from, to := day(2024, 3, 11), day(2024, 3, 1)
	_, err = f.svc.ListPayments(ctx, &payment.ListFilters{From: &from, To: &to})
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

// brokenCustomers fails every customer lookup with a non-NotFound error.
type brokenCustomers struct {
	customer.Repository
	err error
}

func (b brokenCustomers) FindByID(context.Context, int64) (*customer.Customer, error) {
	return nil, b.err
}

func TestListPayments_CustomerLookupErrorReturned(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	ann := f.store.SeedCustomer("Ann", "ann@example.com")
	require.NoError(t, f.store.Payments().Create(ctx, &payment.Payment{
		Reference: "PAY-1", CustomerID: ann.ID, Amount: decimal.NewFromInt(3), Currency: "USD",
		PaymentDate: day(2024, 3, 9), Method: payment.MethodCard, Status: payment.StatusCompleted,
	}))

	dbErr := errors.New("connection reset")
	clk := &clock.Fixed{T: day(2024, 3, 10)}
	writer := auditsvc.NewWriter(f.store.UsageLogs(), f.metrics, zap.NewNop())
	subs := subscriptionsvc.NewSubscriptionService(f.store.Subscriptions(), f.store.Plans(), f.store.Customers(), f.store, writer, clk, zap.NewNop())
	svc := NewPaymentService(f.store.Payments(), brokenCustomers{Repository: f.store.Customers(), err: dbErr},
		f.store.Subscriptions(), f.store.Plans(), subs, f.store, writer, f.metrics, clk, zap.NewNop())

	_, err := svc.ListPayments(ctx, &payment.ListFilters{})
	assert.ErrorIs(t, err, dbErr)
}

func TestListPayments_DeletedCustomerLeavesNameBlank(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	require.NoError(t, f.store.Payments().Create(ctx, &payment.Payment{
		Reference: "PAY-1", CustomerID: 404, Amount: decimal.NewFromInt(3), Currency: "USD",
		PaymentDate: day(2024, 3, 9), Method: payment.MethodCard, Status: payment.StatusCompleted,
	}))

	res, err := f.svc.ListPayments(ctx, &payment.ListFilters{})
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)
	assert.Empty(t, res.Payments[0].CustomerName)
}
