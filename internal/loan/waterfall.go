package loan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kimanzi/sacco-ledger/internal/domain"
	customError "github.com/kimanzi/sacco-ledger/pkg/errors"
)

// Breakdown is the waterfall split of one payment: late fees first, then
// interest, then principal. The three buckets sum exactly to the payment.
type Breakdown struct {
	LateFeesPaid  decimal.Decimal
	InterestPaid  decimal.Decimal
	PrincipalPaid decimal.Decimal
}

func (b Breakdown) Total() decimal.Decimal {
	return b.LateFeesPaid.Add(b.InterestPaid).Add(b.PrincipalPaid)
}

// Allocator is the single canonical waterfall implementation. Previews and
// real payments both go through Allocate; only real payments call Apply.
type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate splits amount across the loan's dues in strict priority order
// without mutating the loan. A payment above the clearance amount is rejected
// outright, naming the maximum the loan can accept.
func (a *Allocator) Allocate(l *domain.LoanAccount, amount decimal.Decimal) (Breakdown, error) {
	if !domain.IsPositiveMoney(amount) {
		return Breakdown{}, customError.WrapInvalidAmount(amount)
	}
	if !l.IsActive() {
		return Breakdown{}, customError.WrapLoanAlreadyClosed(l.ID.String())
	}

	clearance := l.ClearanceAmount()
	if amount.GreaterThan(clearance) {
		return Breakdown{}, customError.WrapOverpayment(clearance)
	}

	lateFees := domain.MinMoney(amount, l.AccumulatedLateFees)
	remaining := amount.Sub(lateFees)
	interest := domain.MinMoney(remaining, l.CurrentInterestDue)
	principal := remaining.Sub(interest)

	b := Breakdown{
		LateFeesPaid:  lateFees,
		InterestPaid:  interest,
		PrincipalPaid: principal,
	}

	if !b.Total().Equal(amount) {
		return Breakdown{}, customError.WrapArithmeticInvariant(
			fmt.Sprintf("waterfall breakdown %s does not sum to payment %s", b.Total(), amount))
	}

	return b, nil
}

// Apply subtracts an allocation from the loan's dues and flips the loan to
// completed when everything hits zero. The allocation must come from Allocate
// against the same loan state; any negative result is a bug and aborts the
// operation before the loan is touched.
func (a *Allocator) Apply(l *domain.LoanAccount, b Breakdown) error {
	lateFees := l.AccumulatedLateFees.Sub(b.LateFeesPaid)
	interest := l.CurrentInterestDue.Sub(b.InterestPaid)
	balance := l.RemainingBalance.Sub(b.PrincipalPaid)

	if lateFees.IsNegative() || interest.IsNegative() || balance.IsNegative() {
		return customError.WrapArithmeticInvariant(
			fmt.Sprintf("allocation drives a due negative: fees=%s interest=%s balance=%s", lateFees, interest, balance))
	}

	l.AccumulatedLateFees = lateFees
	l.CurrentInterestDue = interest
	l.RemainingBalance = balance
	l.TotalPaid = l.TotalPaid.Add(b.Total())

	if lateFees.IsZero() && interest.IsZero() && balance.IsZero() {
		l.Status = domain.LoanStatusCompleted
	}

	return nil
}

// Revert puts a payment's buckets back onto the loan, un-completing it if the
// payment had closed it. Used by administrative payment reversal.
func (a *Allocator) Revert(l *domain.LoanAccount, b Breakdown) {
	l.AccumulatedLateFees = l.AccumulatedLateFees.Add(b.LateFeesPaid)
	l.CurrentInterestDue = l.CurrentInterestDue.Add(b.InterestPaid)
	l.RemainingBalance = l.RemainingBalance.Add(b.PrincipalPaid)
	l.TotalPaid = l.TotalPaid.Sub(b.Total())
	if l.Status == domain.LoanStatusCompleted {
		l.Status = domain.LoanStatusActive
	}
}
