package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kimanzi/sacco-ledger/internal/domain"
	"github.com/kimanzi/sacco-ledger/internal/repository"
)

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, q repository.Querier, member *domain.Member) error {
	args := m.Called(ctx, q, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Member, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) Exists(ctx context.Context, q repository.Querier, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, memberID)
	return args.Bool(0), args.Error(1)
}

type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, q repository.Querier, deposit *domain.SavingsDeposit) error {
	args := m.Called(ctx, q, deposit)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.SavingsDeposit, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavingsDeposit), args.Error(1)
}

func (m *MockDepositRepository) Delete(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockDepositRepository) ListByMember(ctx context.Context, q repository.Querier, memberID uuid.UUID) ([]*domain.SavingsDeposit, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SavingsDeposit), args.Error(1)
}

func (m *MockDepositRepository) TotalByMember(ctx context.Context, q repository.Querier, memberID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, q, memberID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, q repository.Querier, loan *domain.LoanAccount) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.LoanAccount, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanAccount), args.Error(1)
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.LoanAccount, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanAccount), args.Error(1)
}

func (m *MockLoanRepository) GetActiveByMember(ctx context.Context, q repository.Querier, memberID uuid.UUID) (*domain.LoanAccount, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanAccount), args.Error(1)
}

func (m *MockLoanRepository) GetActiveByMemberForUpdate(ctx context.Context, q repository.Querier, memberID uuid.UUID) (*domain.LoanAccount, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanAccount), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, q repository.Querier, loan *domain.LoanAccount) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) Delete(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockLoanRepository) ListActiveIDs(ctx context.Context, q repository.Querier) ([]uuid.UUID, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLoanRepository) ListDueBy(ctx context.Context, q repository.Querier, cutoff time.Time) ([]*domain.LoanAccount, error) {
	args := m.Called(ctx, q, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanAccount), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, q repository.Querier, payment *domain.Payment) error {
	args := m.Called(ctx, q, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByLoan(ctx context.Context, q repository.Querier, loanID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, q, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Totals(ctx context.Context, q repository.Querier) (*repository.LedgerTotals, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.LedgerTotals), args.Error(1)
}
