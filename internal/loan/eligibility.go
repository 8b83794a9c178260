package loan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

// EligibilityInput carries the member state a loan request is judged against.
type EligibilityInput struct {
	TotalSavings   decimal.Decimal
	HasActiveLoan  bool
	Amount         decimal.Decimal
	MonthlyPayment decimal.Decimal
}

// EligibilityResult lists every violated rule so the caller can display them
// all at once instead of one rejection at a time.
type EligibilityResult struct {
	Approved bool     `json:"approved"`
	Reasons  []string `json:"reasons,omitempty"`
}

// EligibilityChecker validates a proposed loan against the cooperative's
// lending rules. Advisory on its own; issuance re-runs it inside the issuing
// transaction against row-locked state.
type EligibilityChecker struct {
	savingsMultiplier decimal.Decimal
}

func NewEligibilityChecker(savingsMultiplier decimal.Decimal) *EligibilityChecker {
	return &EligibilityChecker{savingsMultiplier: savingsMultiplier}
}

// Evaluate checks all rules without short-circuiting. The cap on the loan
// amount is inclusive: exactly multiplier times savings is approved.
func (c *EligibilityChecker) Evaluate(in EligibilityInput) EligibilityResult {
	var reasons []string

	if !domain.IsPositiveMoney(in.TotalSavings) {
		reasons = append(reasons, "member has no savings balance")
	}

	if in.HasActiveLoan {
		reasons = append(reasons, "member already has an active loan")
	}

	if !domain.IsPositiveMoney(in.Amount) {
		reasons = append(reasons, "loan amount must be greater than zero")
	} else if domain.IsPositiveMoney(in.TotalSavings) {
		maxAllowed := domain.RoundMoney(in.TotalSavings.Mul(c.savingsMultiplier))
		if in.Amount.GreaterThan(maxAllowed) {
			reasons = append(reasons, fmt.Sprintf("loan exceeds limit, maximum allowed based on savings is %s", maxAllowed))
		}
	}

	if !domain.IsPositiveMoney(in.MonthlyPayment) {
		reasons = append(reasons, "monthly payment must be greater than zero")
	} else if domain.IsPositiveMoney(in.Amount) && in.MonthlyPayment.GreaterThan(in.Amount) {
		reasons = append(reasons, "monthly payment cannot exceed the loan amount")
	}

	return EligibilityResult{
		Approved: len(reasons) == 0,
		Reasons:  reasons,
	}
}
