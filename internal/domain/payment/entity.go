// internal/domain/payment/entity.go
package payment

import (
	"database/sql"
	"time"

	xerrors "billing-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodPaypal       Method = "paypal"
	MethodOther        Method = "other"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodCash, MethodPaypal, MethodOther:
		return true
	}
	return false
}

type Payment struct {
	ID             int64         `json:"id" db:"id"`
	Reference      string        `json:"reference" db:"reference"`
	CustomerID     int64         `json:"customer_id" db:"customer_id"`
	SubscriptionID sql.NullInt64 `json:"subscription_id,omitempty" db:"subscription_id"`

	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`

	PaymentDate   time.Time      `json:"payment_date" db:"payment_date"`
	Method        Method         `json:"payment_method" db:"payment_method"`
	Status        Status         `json:"status" db:"status"`
	TransactionID string         `json:"transaction_id" db:"transaction_id"`
	FailureReason sql.NullString `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidateAmount enforces that no payment carries a non-positive amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return xerrors.Validation("payment amount must be greater than zero")
	}
	return nil
}

// Complete finalizes a payment. Failed payments can never be finalized.
func (p *Payment) Complete() error {
	switch p.Status {
	case StatusFailed:
		return xerrors.Validation("cannot submit a failed payment")
	case StatusCompleted:
		return xerrors.Conflict("payment is already completed")
	case StatusRefunded:
		return xerrors.Validation("cannot complete a refunded payment")
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}
	p.Status = StatusCompleted
	return nil
}

// HasSubscription reports whether completion extends a subscription.
func (p *Payment) HasSubscription() bool {
	return p.SubscriptionID.Valid && p.SubscriptionID.Int64 > 0
}
