package repository

import (
	"context"
)

type statsRepository struct{}

func NewStatsRepository() StatsRepository {
	return &statsRepository{}
}

// Totals reads every dashboard input as a stored SQL aggregate in one round
// trip. Outstanding principal and projected late fees come from the active
// loans' persisted dues; collected figures come from the payment breakdowns.
func (r *statsRepository) Totals(ctx context.Context, q Querier) (*LedgerTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM members)                                                   AS total_members,
			(SELECT COUNT(*) FROM loans)                                                     AS total_loans_issued,
			(SELECT COALESCE(SUM(amount), 0) FROM savings_deposits)                          AS total_savings,
			(SELECT COALESCE(SUM(principal), 0) FROM loans)                                  AS total_principal_loaned,
			(SELECT COALESCE(SUM(principal_paid), 0) FROM payments)                          AS total_principal_collected,
			(SELECT COALESCE(SUM(interest_paid), 0) FROM payments)                           AS total_interest_collected,
			(SELECT COALESCE(SUM(late_fees_paid), 0) FROM payments)                          AS total_late_fees_collected,
			(SELECT COALESCE(SUM(remaining_balance), 0) FROM loans WHERE status = 'active')  AS outstanding_principal,
			(SELECT COALESCE(SUM(accumulated_late_fees), 0) FROM loans WHERE status = 'active') AS projected_late_fees
	`

	var totals LedgerTotals
	if err := q.GetContext(ctx, &totals, query); err != nil {
		return nil, err
	}

	return &totals, nil
}
