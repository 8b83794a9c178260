package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

type depositRepository struct{}

func NewDepositRepository() DepositRepository {
	return &depositRepository{}
}

const depositColumns = `id, member_id, amount, created_at`

func (r *depositRepository) Create(ctx context.Context, q Querier, deposit *domain.SavingsDeposit) error {
	query := `
		INSERT INTO savings_deposits (` + depositColumns + `)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.ExecContext(ctx, query,
		deposit.ID,
		deposit.MemberID,
		deposit.Amount,
		deposit.CreatedAt,
	)

	return err
}

func (r *depositRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.SavingsDeposit, error) {
	query := `SELECT ` + depositColumns + ` FROM savings_deposits WHERE id = $1`

	var deposit domain.SavingsDeposit
	if err := q.GetContext(ctx, &deposit, query, id); err != nil {
		return nil, err
	}

	return &deposit, nil
}

func (r *depositRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM savings_deposits WHERE id = $1`

	_, err := q.ExecContext(ctx, query, id)
	return err
}

func (r *depositRepository) ListByMember(ctx context.Context, q Querier, memberID uuid.UUID) ([]*domain.SavingsDeposit, error) {
	query := `SELECT ` + depositColumns + ` FROM savings_deposits WHERE member_id = $1 ORDER BY created_at`

	var deposits []*domain.SavingsDeposit
	if err := q.SelectContext(ctx, &deposits, query, memberID); err != nil {
		return nil, err
	}

	return deposits, nil
}

func (r *depositRepository) TotalByMember(ctx context.Context, q Querier, memberID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM savings_deposits WHERE member_id = $1`

	var total decimal.Decimal
	if err := q.GetContext(ctx, &total, query, memberID); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
