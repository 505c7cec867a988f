// Package testutil provides in-memory implementations of the repository
// interfaces for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"billing-service/internal/domain/admin"
	"billing-service/internal/domain/audit"
	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/payment"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"
	"billing-service/internal/pkg/clock"
)

type table[T any] struct {
	rows map[int64]T
	seq  int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) nextID() int64 {
	t.seq++
	return t.seq
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[int64]T, len(t.rows)), seq: t.seq}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

// ordered returns rows by ascending id.
func (t *table[T]) ordered() []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

// Store holds every table in memory. WithinTx snapshots the tables and puts
// them back when fn fails, so a failed unit of work leaves no trace.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	customers     *table[customer.Customer]
	plans         *table[plan.SubscriptionPlan]
	subscriptions *table[subscription.Subscription]
	payments      *table[payment.Payment]
	logs          *table[audit.UsageLog]
	admins        *table[admin.Admin]
}

func NewStore(c clock.Clock) *Store {
	return &Store{
		clock:         c,
		customers:     newTable[customer.Customer](),
		plans:         newTable[plan.SubscriptionPlan](),
		subscriptions: newTable[subscription.Subscription](),
		payments:      newTable[payment.Payment](),
		logs:          newTable[audit.UsageLog](),
		admins:        newTable[admin.Admin](),
	}
}

type snapshot struct {
	customers     *table[customer.Customer]
	plans         *table[plan.SubscriptionPlan]
	subscriptions *table[subscription.Subscription]
	payments      *table[payment.Payment]
	logs          *table[audit.UsageLog]
	admins        *table[admin.Admin]
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := snapshot{
		customers:     s.customers.clone(),
		plans:         s.plans.clone(),
		subscriptions: s.subscriptions.clone(),
		payments:      s.payments.clone(),
		logs:          s.logs.clone(),
		admins:        s.admins.clone(),
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.customers = snap.customers
		s.plans = snap.plans
		s.subscriptions = snap.subscriptions
		s.payments = snap.payments
		s.logs = snap.logs
		s.admins = snap.admins
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now()
}

func (s *Store) Customers() customer.Repository         { return &customerStore{s} }
func (s *Store) Plans() plan.Repository                 { return &planStore{s} }
func (s *Store) Subscriptions() subscription.Repository { return &subscriptionStore{s} }
func (s *Store) Payments() payment.Repository           { return &paymentStore{s} }
func (s *Store) UsageLogs() audit.Repository            { return &usageLogStore{s} }
func (s *Store) Admins() admin.Repository               { return &adminStore{s} }
func (s *Store) Reports() *ReportStore                  { return &ReportStore{s} }

// UsageLogCount is a test helper.
func (s *Store) UsageLogCount(feature audit.Feature) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.logs.rows {
		if l.Feature == feature {
			n++
		}
	}
	return n
}

// PaymentCount is a test helper.
func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments.rows)
}

func page(total, pageNum, pageSize int) (int, int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (pageNum - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
