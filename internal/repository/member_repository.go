package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kimanzi/sacco-ledger/internal/domain"
)

type memberRepository struct{}

func NewMemberRepository() MemberRepository {
	return &memberRepository{}
}

const memberColumns = `id, full_name, phone, created_at`

func (r *memberRepository) Create(ctx context.Context, q Querier, member *domain.Member) error {
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.ExecContext(ctx, query,
		member.ID,
		member.FullName,
		member.Phone,
		member.CreatedAt,
	)

	return err
}

func (r *memberRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	var member domain.Member
	if err := q.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *memberRepository) Exists(ctx context.Context, q Querier, memberID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`

	var exists bool
	if err := q.GetContext(ctx, &exists, query, memberID); err != nil {
		return false, err
	}

	return exists, nil
}
