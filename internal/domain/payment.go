package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the immutable record of one repayment event, carrying the
// waterfall breakdown. The three buckets always sum exactly to TotalAmount.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	LateFeesPaid  decimal.Decimal `json:"late_fees_paid" db:"late_fees_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	PrincipalPaid decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}
