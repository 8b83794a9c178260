package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// method can run standalone or inside a service-owned transaction. The
// transaction is what gives each loan mutation exclusive access to its row.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// MemberRepository defines the interface for member registry operations
type MemberRepository interface {
	// Create registers a new member
	Create(ctx context.Context, q Querier, member *domain.Member) error

	// GetByID retrieves a member by their ID
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Member, error)

	// Exists reports whether the member identifier is known
	Exists(ctx context.Context, q Querier, memberID uuid.UUID) (bool, error)
}

// DepositRepository defines the interface for savings deposit operations
type DepositRepository interface {
	// Create records an immutable savings deposit
	Create(ctx context.Context, q Querier, deposit *domain.SavingsDeposit) error

	// GetByID retrieves a deposit by its ID
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.SavingsDeposit, error)

	// Delete removes a deposit (administrative reversal)
	Delete(ctx context.Context, q Querier, id uuid.UUID) error

	// ListByMember retrieves all deposits for a member
	ListByMember(ctx context.Context, q Querier, memberID uuid.UUID) ([]*domain.SavingsDeposit, error)

	// TotalByMember sums a member's deposits into their derived savings balance
	TotalByMember(ctx context.Context, q Querier, memberID uuid.UUID) (decimal.Decimal, error)
}

// LoanRepository defines the interface for loan account operations
type LoanRepository interface {
	// Create creates a new loan account
	Create(ctx context.Context, q Querier, loan *domain.LoanAccount) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.LoanAccount, error)

	// GetByIDForUpdate retrieves a loan with its row locked for the transaction
	GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*domain.LoanAccount, error)

	// GetActiveByMember retrieves a member's active loan, sql.ErrNoRows when none
	GetActiveByMember(ctx context.Context, q Querier, memberID uuid.UUID) (*domain.LoanAccount, error)

	// GetActiveByMemberForUpdate locks the member's active loan row if present
	GetActiveByMemberForUpdate(ctx context.Context, q Querier, memberID uuid.UUID) (*domain.LoanAccount, error)

	// Update persists the loan's mutable dues, schedule cursor and status
	Update(ctx context.Context, q Querier, loan *domain.LoanAccount) error

	// Delete removes a loan; payments cascade at the schema level
	Delete(ctx context.Context, q Querier, id uuid.UUID) error

	// ListActiveIDs returns the ids of all active loans for the accrual sweep
	ListActiveIDs(ctx context.Context, q Querier) ([]uuid.UUID, error)

	// ListDueBy returns active loans whose next due date falls on or before the cutoff
	ListDueBy(ctx context.Context, q Querier, cutoff time.Time) ([]*domain.LoanAccount, error)
}

// PaymentRepository defines the interface for payment record operations
type PaymentRepository interface {
	// Create records an immutable payment with its waterfall breakdown
	Create(ctx context.Context, q Querier, payment *domain.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Payment, error)

	// ListByLoan retrieves all payments for a loan, oldest first
	ListByLoan(ctx context.Context, q Querier, loanID uuid.UUID) ([]*domain.Payment, error)

	// Delete removes a payment (administrative reversal)
	Delete(ctx context.Context, q Querier, id uuid.UUID) error
}

// LedgerTotals are the stored sums the dashboard derives its KPIs from.
// Each figure comes straight out of a SQL aggregate, never from walking rows.
type LedgerTotals struct {
	TotalMembers            int             `db:"total_members"`
	TotalLoansIssued        int             `db:"total_loans_issued"`
	TotalSavings            decimal.Decimal `db:"total_savings"`
	TotalPrincipalLoaned    decimal.Decimal `db:"total_principal_loaned"`
	TotalPrincipalCollected decimal.Decimal `db:"total_principal_collected"`
	TotalInterestCollected  decimal.Decimal `db:"total_interest_collected"`
	TotalLateFeesCollected  decimal.Decimal `db:"total_late_fees_collected"`
	OutstandingPrincipal    decimal.Decimal `db:"outstanding_principal"`
	ProjectedLateFees       decimal.Decimal `db:"projected_late_fees"`
}

// StatsRepository defines the interface for ledger-wide aggregates
type StatsRepository interface {
	Totals(ctx context.Context, q Querier) (*LedgerTotals, error)
}
