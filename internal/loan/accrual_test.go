package loan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

func testPolicy() DecliningBalancePolicy {
	return DecliningBalancePolicy{
		InterestRate: decimal.RequireFromString("0.015"),
		LateFeeRate:  decimal.RequireFromString("0.03"),
	}
}

// balance 10000, monthly payment 1000, first due date 2026-02-01
func accrualFixture() *domain.LoanAccount {
	return &domain.LoanAccount{
		ID:                  uuid.New(),
		Principal:           domain.MustMoney("10000.00"),
		MonthlyPayment:      domain.MustMoney("1000.00"),
		RemainingBalance:    domain.MustMoney("10000.00"),
		CurrentInterestDue:  domain.ZeroMoney,
		AccumulatedLateFees: domain.ZeroMoney,
		TotalPaid:           domain.ZeroMoney,
		NextDueDate:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:              domain.LoanStatusActive,
	}
}

func TestAccrue_NothingBeforeFirstDueDate(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()

	changed := engine.Accrue(l, time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC))

	assert.False(t, changed)
	assert.True(t, l.CurrentInterestDue.IsZero())
	assert.True(t, l.AccumulatedLateFees.IsZero())
	assert.Equal(t, 0, l.PeriodsElapsed)
}

func TestAccrue_OneMissedPeriod(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()

	changed := engine.Accrue(l, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, changed)

	// 1.5% of the 10000 balance, plus 3% of the 1000 installment as a late fee
	assert.True(t, l.CurrentInterestDue.Equal(domain.MustMoney("150.00")), "interest: got %s", l.CurrentInterestDue)
	assert.True(t, l.AccumulatedLateFees.Equal(domain.MustMoney("30.00")), "late fees: got %s", l.AccumulatedLateFees)
	assert.Equal(t, 1, l.PeriodsElapsed)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), l.NextDueDate)

	// interest never folds into the balance
	assert.True(t, l.RemainingBalance.Equal(domain.MustMoney("10000.00")))
}

func TestAccrue_PaidInstallmentSkipsLateFee(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()
	l.TotalPaid = domain.MustMoney("1000.00") // one installment covered

	engine.Accrue(l, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, l.CurrentInterestDue.Equal(domain.MustMoney("150.00")))
	assert.True(t, l.AccumulatedLateFees.IsZero())
}

func TestAccrue_MultipleMissedPeriods(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()

	changed := engine.Accrue(l, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, changed)

	// three periods on an unchanged balance: interest does not compound
	assert.Equal(t, 3, l.PeriodsElapsed)
	assert.True(t, l.CurrentInterestDue.Equal(domain.MustMoney("450.00")), "interest: got %s", l.CurrentInterestDue)
	assert.True(t, l.AccumulatedLateFees.Equal(domain.MustMoney("90.00")), "late fees: got %s", l.AccumulatedLateFees)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), l.NextDueDate)
}

func TestAccrue_Idempotent(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.True(t, engine.Accrue(l, asOf))
	interest := l.CurrentInterestDue
	fees := l.AccumulatedLateFees
	periods := l.PeriodsElapsed

	// a second sweep with the same clock must be a no-op
	assert.False(t, engine.Accrue(l, asOf))
	assert.True(t, l.CurrentInterestDue.Equal(interest))
	assert.True(t, l.AccumulatedLateFees.Equal(fees))
	assert.Equal(t, periods, l.PeriodsElapsed)
}

func TestAccrue_CompletedLoanUntouched(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()
	l.Status = domain.LoanStatusCompleted

	changed := engine.Accrue(l, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.False(t, changed)
	assert.True(t, l.CurrentInterestDue.IsZero())
	assert.Equal(t, 0, l.PeriodsElapsed)
}

func TestAccrue_InterestTracksDecliningBalance(t *testing.T) {
	engine := NewAccrualEngine(testPolicy())
	l := accrualFixture()
	l.RemainingBalance = domain.MustMoney("5000.00")
	l.TotalPaid = domain.MustMoney("6500.00")

	engine.Accrue(l, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	// 1.5% of the reduced 5000 balance, not of the original principal
	assert.True(t, l.CurrentInterestDue.Equal(domain.MustMoney("75.00")), "interest: got %s", l.CurrentInterestDue)
}
