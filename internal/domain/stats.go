package domain

import (
	"github.com/shopspring/decimal"
)

// DashboardStats is the portfolio-level KPI snapshot derived from ledger sums.
// Ratios are percentages rounded to 2 decimal places.
type DashboardStats struct {
	TotalMembers            int             `json:"total_members"`
	TotalLoansIssued        int             `json:"total_loans_issued"`
	TotalSavings            decimal.Decimal `json:"total_savings"`
	OutstandingPrincipal    decimal.Decimal `json:"outstanding_principal"`
	TotalPrincipalLoaned    decimal.Decimal `json:"total_principal_loaned"`
	TotalPrincipalCollected decimal.Decimal `json:"total_principal_collected"`
	TotalInterestCollected  decimal.Decimal `json:"total_interest_collected"`
	TotalLateFeesCollected  decimal.Decimal `json:"total_late_fees_collected"`
	ProjectedLateFees       decimal.Decimal `json:"projected_late_fees"`
	CashInVault             decimal.Decimal `json:"cash_in_vault"`
	LiquidityRatio          decimal.Decimal `json:"liquidity_ratio"`
	RecoveryRate            decimal.Decimal `json:"recovery_rate"`
	NetProfit               decimal.Decimal `json:"net_profit"`
}
