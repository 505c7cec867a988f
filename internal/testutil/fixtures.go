package testutil

import (
	"context"

	"billing-service/internal/domain/customer"
	"billing-service/internal/domain/plan"
	"billing-service/internal/domain/subscription"

	"github.com/shopspring/decimal"
)

// SeedPlan inserts an active plan with the given prices.
func (s *Store) SeedPlan(name string, monthly, yearly int64) *plan.SubscriptionPlan {
	p := &plan.SubscriptionPlan{
		Name:         name,
		PriceMonthly: decimal.NewFromInt(monthly),
		PriceYearly:  decimal.NewFromInt(yearly),
		Currency:     "USD",
		IsActive:     true,
	}
	if err := s.Plans().Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// SeedCustomer inserts a customer without provisioning a subscription.
func (s *Store) SeedCustomer(name, email string) *customer.Customer {
	c := &customer.Customer{FullName: name, Email: email, Reference: "CUS-" + email}
	if err := s.Customers().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// SeedSubscription inserts sub as given, bypassing the state machine.
func (s *Store) SeedSubscription(sub subscription.Subscription) *subscription.Subscription {
	if err := s.Subscriptions().Create(context.Background(), &sub); err != nil {
		panic(err)
	}
	return &sub
}
