// internal/domain/payment/dto.go
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProcessPaymentRequest struct {
	CustomerID     int64           `json:"customer_id" binding:"required,min=1"`
	SubscriptionID *int64          `json:"subscription_id" binding:"omitempty,min=1"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	Method         Method          `json:"payment_method" binding:"required"`
	TransactionID  string          `json:"transaction_id" binding:"max=140"`
}

// RecordPaymentRequest enters a payment that has not settled or has failed.
type RecordPaymentRequest struct {
	ProcessPaymentRequest
	Status        Status `json:"status" binding:"required,oneof=pending failed"`
	FailureReason string `json:"failure_reason" binding:"max=500"`
}

type ListFilters struct {
	CustomerID     *int64     `form:"customer_id"`
	SubscriptionID *int64     `form:"subscription_id"`
	Status         *Status    `form:"status"`
	Method         *Method    `form:"payment_method"`
	From           *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To             *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListItem struct {
	Payment
	CustomerName string `json:"customer_name"`
}

type ListResponse struct {
	Payments   []ListItem `json:"payments"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
