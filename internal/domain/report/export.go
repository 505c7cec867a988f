package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Export rows carry csv tags for gocsv and json tags for the API.

type CustomerRow struct {
	ID        int64     `json:"id" csv:"id"`
	Reference string    `json:"reference" csv:"reference"`
	FullName  string    `json:"full_name" csv:"full_name"`
	Email     string    `json:"email" csv:"email"`
	Phone     string    `json:"phone" csv:"phone"`
	Company   string    `json:"company" csv:"company"`
	CreatedAt time.Time `json:"created_at" csv:"created_at"`
}

type SubscriptionRow struct {
	ID                 int64     `json:"id" csv:"id"`
	Reference          string    `json:"reference" csv:"reference"`
	CustomerName       string    `json:"customer_name" csv:"customer_name"`
	CustomerEmail      string    `json:"customer_email" csv:"customer_email"`
	PlanName           string    `json:"plan_name" csv:"plan_name"`
	Status             string    `json:"status" csv:"status"`
	BillingCycle       string    `json:"billing_cycle" csv:"billing_cycle"`
	StartDate          time.Time `json:"start_date" csv:"start_date"`
	EndDate            time.Time `json:"end_date" csv:"end_date"`
	CancellationReason string    `json:"cancellation_reason" csv:"cancellation_reason"`
}

type PaymentRow struct {
	ID            int64           `json:"id" csv:"id"`
	Reference     string          `json:"reference" csv:"reference"`
	CustomerName  string          `json:"customer_name" csv:"customer_name"`
	CustomerEmail string          `json:"customer_email" csv:"customer_email"`
	Amount        decimal.Decimal `json:"amount" csv:"amount"`
	Currency      string          `json:"currency" csv:"currency"`
	PaymentDate   time.Time       `json:"payment_date" csv:"payment_date"`
	Method        string          `json:"payment_method" csv:"payment_method"`
	Status        string          `json:"status" csv:"status"`
	TransactionID string          `json:"transaction_id" csv:"transaction_id"`
}

type MonthlyRevenueRow struct {
	Month        string          `json:"month" csv:"month"`
	TotalRevenue decimal.Decimal `json:"total_revenue" csv:"total_revenue"`
	PaymentCount int64           `json:"payment_count" csv:"payment_count"`
}
