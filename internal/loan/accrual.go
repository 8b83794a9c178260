package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

// Policy decides how much a loan owes per elapsed period. Kept behind an
// interface so the cooperative can swap the formula without touching the
// accrual walk.
type Policy interface {
	// PeriodInterest is the interest charged for one whole period on the
	// balance carried into it.
	PeriodInterest(balance decimal.Decimal) decimal.Decimal

	// LateFee is the penalty for one scheduled installment that was not
	// covered by the cash paid so far.
	LateFee(installment decimal.Decimal) decimal.Decimal
}

// DecliningBalancePolicy charges simple interest on the remaining principal
// and a flat share of the installment per missed month. Rates come from
// cooperative-wide config, not per-loan settings.
type DecliningBalancePolicy struct {
	InterestRate decimal.Decimal // per period, e.g. 0.015
	LateFeeRate  decimal.Decimal // share of the installment, e.g. 0.03
}

func (p DecliningBalancePolicy) PeriodInterest(balance decimal.Decimal) decimal.Decimal {
	return domain.PercentOf(balance, p.InterestRate)
}

func (p DecliningBalancePolicy) LateFee(installment decimal.Decimal) decimal.Decimal {
	return domain.PercentOf(installment, p.LateFeeRate)
}

// AccrualEngine advances a loan's dues through elapsed schedule periods.
type AccrualEngine struct {
	policy Policy
}

func NewAccrualEngine(policy Policy) *AccrualEngine {
	return &AccrualEngine{policy: policy}
}

// Accrue processes every scheduled due date that has passed up to asOf:
// interest for the period is added on the balance carried into it, a late fee
// is added when the installments paid so far do not cover the period, and the
// due date moves forward one month whether or not the installment was paid.
// The walk is driven by NextDueDate, so a second call with the same asOf does
// nothing. Dues only ever grow here; payments are the only thing that reduces
// them. Returns true when the loan changed.
func (e *AccrualEngine) Accrue(l *domain.LoanAccount, asOf time.Time) bool {
	if !l.IsActive() {
		return false
	}

	changed := false
	for !l.NextDueDate.After(asOf) {
		l.PeriodsElapsed++
		l.CurrentInterestDue = l.CurrentInterestDue.Add(e.policy.PeriodInterest(l.RemainingBalance))
		if l.InstallmentsPaid() < l.PeriodsElapsed {
			l.AccumulatedLateFees = l.AccumulatedLateFees.Add(e.policy.LateFee(l.MonthlyPayment))
		}
		l.NextDueDate = l.NextDueDate.AddDate(0, 1, 0)
		changed = true
	}

	return changed
}
