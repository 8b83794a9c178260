package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Member is a registered cooperative member. The ledger keeps only what it
// needs to hang deposits and loans on; phone doubles as the human-facing
// unique handle.
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SavingsDeposit is an immutable record of money a member put into savings.
// A member's savings total is always derived as the sum of their deposits,
// so an administrative reversal is a plain delete.
type SavingsDeposit struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	MemberID  uuid.UUID       `json:"member_id" db:"member_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type CreateMemberRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type RecordDepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type SavingsResponse struct {
	MemberID     uuid.UUID       `json:"member_id"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}
