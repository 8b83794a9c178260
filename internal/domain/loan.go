package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
)

// LoanAccount tracks one member's borrowing: the fixed principal, the dues
// the accrual sweep keeps current, and the balance the payment waterfall
// draws down. A member holds at most one active loan at a time.
type LoanAccount struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	MemberID            uuid.UUID       `json:"member_id" db:"member_id"`
	Principal           decimal.Decimal `json:"principal" db:"principal"`
	InterestRate        decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	MonthlyPayment      decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	RemainingBalance    decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	CurrentInterestDue  decimal.Decimal `json:"current_interest_due" db:"current_interest_due"`
	AccumulatedLateFees decimal.Decimal `json:"accumulated_late_fees" db:"accumulated_late_fees"`
	TotalPaid           decimal.Decimal `json:"total_paid" db:"total_paid"`
	PeriodsElapsed      int             `json:"periods_elapsed" db:"periods_elapsed"`
	NextDueDate         time.Time       `json:"next_due_date" db:"next_due_date"`
	Status              string          `json:"status" db:"status"`
	ApprovedAt          time.Time       `json:"approved_at" db:"approved_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// ClearanceAmount is the total needed to fully close the loan right now:
// remaining principal plus unpaid interest plus unpaid late fees.
func (l *LoanAccount) ClearanceAmount() decimal.Decimal {
	return l.RemainingBalance.Add(l.CurrentInterestDue).Add(l.AccumulatedLateFees)
}

func (l *LoanAccount) IsActive() bool {
	return l.Status == LoanStatusActive
}

// InstallmentsPaid counts how many full scheduled installments the cash paid
// so far covers. Accrual uses it to decide whether a passed due date was missed.
func (l *LoanAccount) InstallmentsPaid() int {
	if !IsPositiveMoney(l.MonthlyPayment) {
		return 0
	}
	return int(l.TotalPaid.Div(l.MonthlyPayment).IntPart())
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment" validate:"required"`
}

type LoanResponse struct {
	Loan            *LoanAccount    `json:"loan"`
	ClearanceAmount decimal.Decimal `json:"clearance_amount"`
}

type PreviewResponse struct {
	LoanID          uuid.UUID       `json:"loan_id"`
	Amount          decimal.Decimal `json:"amount"`
	LateFeesPaid    decimal.Decimal `json:"late_fees_paid"`
	InterestPaid    decimal.Decimal `json:"interest_paid"`
	PrincipalPaid   decimal.Decimal `json:"principal_paid"`
	WouldComplete   bool            `json:"would_complete"`
	ClearanceAmount decimal.Decimal `json:"clearance_amount"`
}
