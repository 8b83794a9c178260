package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

const paymentColumns = `id, loan_id, total_amount, late_fees_paid, interest_paid, principal_paid, created_at`

func (r *paymentRepository) Create(ctx context.Context, q Querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.ExecContext(ctx, query,
		payment.ID,
		payment.LoanID,
		payment.TotalAmount,
		payment.LateFeesPaid,
		payment.InterestPaid,
		payment.PrincipalPaid,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment domain.Payment
	if err := q.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, q Querier, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1 ORDER BY created_at`

	var payments []*domain.Payment
	if err := q.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM payments WHERE id = $1`

	_, err := q.ExecContext(ctx, query, id)
	return err
}
