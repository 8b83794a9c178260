package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

type loanRepository struct{}

func NewLoanRepository() LoanRepository {
	return &loanRepository{}
}

const loanColumns = `id, member_id, principal, interest_rate, monthly_payment,
		remaining_balance, current_interest_due, accumulated_late_fees,
		total_paid, periods_elapsed, next_due_date, status, approved_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, q Querier, loan *domain.LoanAccount) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.MemberID,
		loan.Principal,
		loan.InterestRate,
		loan.MonthlyPayment,
		loan.RemainingBalance,
		loan.CurrentInterestDue,
		loan.AccumulatedLateFees,
		loan.TotalPaid,
		loan.PeriodsElapsed,
		loan.NextDueDate,
		loan.Status,
		loan.ApprovedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.LoanAccount, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.LoanAccount
	if err := q.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*domain.LoanAccount, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	var loan domain.LoanAccount
	if err := q.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetActiveByMember(ctx context.Context, q Querier, memberID uuid.UUID) (*domain.LoanAccount, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE member_id = $1 AND status = 'active'`

	var loan domain.LoanAccount
	if err := q.GetContext(ctx, &loan, query, memberID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetActiveByMemberForUpdate(ctx context.Context, q Querier, memberID uuid.UUID) (*domain.LoanAccount, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE member_id = $1 AND status = 'active' FOR UPDATE`

	var loan domain.LoanAccount
	if err := q.GetContext(ctx, &loan, query, memberID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, q Querier, loan *domain.LoanAccount) error {
	query := `
		UPDATE loans
		SET remaining_balance = $2,
		    current_interest_due = $3,
		    accumulated_late_fees = $4,
		    total_paid = $5,
		    periods_elapsed = $6,
		    next_due_date = $7,
		    status = $8,
		    updated_at = $9
		WHERE id = $1
	`

	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.RemainingBalance,
		loan.CurrentInterestDue,
		loan.AccumulatedLateFees,
		loan.TotalPaid,
		loan.PeriodsElapsed,
		loan.NextDueDate,
		loan.Status,
		time.Now().UTC(),
	)

	return err
}

func (r *loanRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM loans WHERE id = $1`

	_, err := q.ExecContext(ctx, query, id)
	return err
}

func (r *loanRepository) ListActiveIDs(ctx context.Context, q Querier) ([]uuid.UUID, error) {
	query := `SELECT id FROM loans WHERE status = 'active' ORDER BY approved_at`

	var ids []uuid.UUID
	if err := q.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *loanRepository) ListDueBy(ctx context.Context, q Querier, cutoff time.Time) ([]*domain.LoanAccount, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE status = 'active' AND next_due_date <= $1
		ORDER BY next_due_date`

	var loans []*domain.LoanAccount
	if err := q.SelectContext(ctx, &loans, query, cutoff); err != nil {
		return nil, err
	}

	return loans, nil
}
