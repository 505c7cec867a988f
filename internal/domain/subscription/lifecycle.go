package subscription

import (
	"fmt"
	"time"

	"billing-service/internal/domain/audit"
	"billing-service/internal/pkg/clock"
	xerrors "billing-service/internal/pkg/errors"
)

// New starts an Active subscription on start. The end date is one billing
// period later and the next billing date mirrors it.
func New(customerID, planID int64, cycle BillingCycle, start time.Time) (*Subscription, []audit.Event, error) {
	if !cycle.Valid() {
		return nil, nil, xerrors.Validation("invalid billing cycle %q", cycle)
	}
	start = clock.Date(start)
	end := clock.AddMonths(start, cycle.Months())

	s := &Subscription{
		CustomerID:      customerID,
		PlanID:          planID,
		Status:          StatusActive,
		BillingCycle:    cycle,
		StartDate:       start,
		EndDate:         end,
		NextBillingDate: end,
	}
	return s, []audit.Event{s.statusEvent("", start)}, nil
}

// Validate checks the record-level invariants.
func (s *Subscription) Validate() error {
	if !s.Status.Valid() {
		return xerrors.Validation("invalid subscription status %q", s.Status)
	}
	if !s.BillingCycle.Valid() {
		return xerrors.Validation("invalid billing cycle %q", s.BillingCycle)
	}
	if s.EndDate.Before(s.StartDate) {
		return xerrors.Validation("end date cannot be before start date")
	}
	return nil
}

// Reconcile expires an Active subscription whose end date has passed. Calling
// it again on the same day is a no-op.
func (s *Subscription) Reconcile(today time.Time) []audit.Event {
	today = clock.Date(today)
	if s.Status != StatusActive || !s.EndDate.Before(today) {
		return nil
	}
	from := s.Status
	s.Status = StatusExpired
	return []audit.Event{s.statusEvent(from, today)}
}

// Cancel ends the subscription now. Cancelling twice is a conflict.
func (s *Subscription) Cancel(reason string, today time.Time) ([]audit.Event, error) {
	if s.Status == StatusCancelled {
		return nil, xerrors.Conflict("subscription is already cancelled")
	}
	today = clock.Date(today)
	from := s.Status
	s.Status = StatusCancelled
	s.CancellationDate.Time, s.CancellationDate.Valid = today, true
	s.CancellationReason.String, s.CancellationReason.Valid = reason, reason != ""
	return []audit.Event{s.statusEvent(from, today)}, nil
}

// ChangePlan swaps the plan of an Active subscription. The names only feed
// the audit detail.
func (s *Subscription) ChangePlan(newPlanID int64, oldName, newName string, today time.Time) ([]audit.Event, error) {
	if s.Status != StatusActive {
		return nil, xerrors.Validation("only active subscriptions can change plan")
	}
	if s.PlanID == newPlanID {
		return nil, xerrors.Validation("subscription is already on plan %s", newName)
	}
	s.PlanID = newPlanID
	return []audit.Event{{
		Feature:        audit.FeaturePlanChange,
		CustomerID:     s.CustomerID,
		SubscriptionID: s.ID,
		From:           oldName,
		To:             newName,
		Details:        fmt.Sprintf("Changed from %s to %s", oldName, newName),
		OccurredAt:     clock.Date(today),
	}}, nil
}

// Extend pushes the end date out by days and mirrors the next billing date.
// It never changes the status.
func (s *Subscription) Extend(days int) error {
	if days < 1 {
		return xerrors.Validation("extension must be at least one day")
	}
	s.EndDate = s.EndDate.AddDate(0, 0, days)
	s.NextBillingDate = s.EndDate
	return nil
}

// ApplyPayment extends the term by one billing period. An Expired
// subscription whose new end date has not passed becomes Active again;
// a Cancelled one stays Cancelled.
func (s *Subscription) ApplyPayment(today time.Time) []audit.Event {
	today = clock.Date(today)
	s.EndDate = clock.AddMonths(s.EndDate, s.BillingCycle.Months())
	s.NextBillingDate = s.EndDate

	if s.Status != StatusExpired || s.EndDate.Before(today) {
		return nil
	}
	from := s.Status
	s.Status = StatusActive
	return []audit.Event{s.statusEvent(from, today)}
}

// ExpiringEvent records that the subscription ends soon.
func (s *Subscription) ExpiringEvent(planName string, today time.Time) audit.Event {
	return audit.Event{
		Feature:        audit.FeatureExpiring,
		CustomerID:     s.CustomerID,
		SubscriptionID: s.ID,
		Details:        fmt.Sprintf("Subscription to %s expires on %s", planName, s.EndDate.Format("2006-01-02")),
		OccurredAt:     clock.Date(today),
	}
}

func (s *Subscription) statusEvent(from Status, at time.Time) audit.Event {
	return audit.Event{
		Feature:        audit.FeatureStatusChange,
		CustomerID:     s.CustomerID,
		SubscriptionID: s.ID,
		From:           string(from),
		To:             string(s.Status),
		Details:        fmt.Sprintf("Status changed to %s", s.Status),
		OccurredAt:     at,
	}
}
