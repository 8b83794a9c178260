package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kimanzi/sacco-ledger/internal/config"
	"github.com/kimanzi/sacco-ledger/internal/domain"
	"github.com/kimanzi/sacco-ledger/internal/loan"
	"github.com/kimanzi/sacco-ledger/internal/repository"
	customError "github.com/kimanzi/sacco-ledger/pkg/errors"
)

const statsCacheKey = "dashboard:stats"

// LedgerService owns every loan-mutating operation. Each one runs inside a
// transaction that locks the target loan row, so reads and writes of the dues
// fields never interleave across concurrent requests.
type LedgerService struct {
	db          *sqlx.DB
	memberRepo  repository.MemberRepository
	depositRepo repository.DepositRepository
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	statsRepo   repository.StatsRepository
	redis       *redis.Client
	log         *logrus.Logger
	config      *config.Config

	eligibility *loan.EligibilityChecker
	accrual     *loan.AccrualEngine
	allocator   *loan.Allocator

	// now is swapped out in tests
	now func() time.Time
}

func NewLedgerService(
	db *sqlx.DB,
	memberRepo repository.MemberRepository,
	depositRepo repository.DepositRepository,
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	statsRepo repository.StatsRepository,
	redisClient *redis.Client,
	log *logrus.Logger,
	cfg *config.Config,
) *LedgerService {
	policy := loan.DecliningBalancePolicy{
		InterestRate: cfg.GetMonthlyInterestRate(),
		LateFeeRate:  cfg.GetLateFeeRate(),
	}

	return &LedgerService{
		db:          db,
		memberRepo:  memberRepo,
		depositRepo: depositRepo,
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		statsRepo:   statsRepo,
		redis:       redisClient,
		log:         log,
		config:      cfg,
		eligibility: loan.NewEligibilityChecker(cfg.GetSavingsMultiplier()),
		accrual:     loan.NewAccrualEngine(policy),
		allocator:   loan.NewAllocator(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterMember adds a member to the cooperative's registry. Phone is the
// unique human-facing handle; a duplicate is a conflict, not a server error.
func (s *LedgerService) RegisterMember(ctx context.Context, req *domain.CreateMemberRequest) (*domain.Member, error) {
	member := &domain.Member{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Phone:     req.Phone,
		CreatedAt: s.now(),
	}

	if err := s.memberRepo.Create(ctx, s.db, member); err != nil {
		if isUniqueViolation(err) {
			return nil, customError.WrapPhoneTaken(req.Phone)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"member_id": member.ID,
		"phone":     member.Phone,
	}).Info("member registered")

	return member, nil
}

// GetMember returns a member's registry entry.
func (s *LedgerService) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, s.db, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapMemberNotFound(memberID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return member, nil
}

// RecordDeposit adds an immutable savings deposit for a member.
func (s *LedgerService) RecordDeposit(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal) (*domain.SavingsDeposit, error) {
	if !domain.IsPositiveMoney(amount) {
		return nil, customError.WrapInvalidAmount(amount)
	}

	exists, err := s.memberRepo.Exists(ctx, s.db, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !exists {
		return nil, customError.WrapMemberNotFound(memberID.String())
	}

	deposit := &domain.SavingsDeposit{
		ID:        uuid.New(),
		MemberID:  memberID,
		Amount:    domain.RoundMoney(amount),
		CreatedAt: s.now(),
	}

	if err := s.depositRepo.Create(ctx, s.db, deposit); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"member_id": memberID,
		"amount":    deposit.Amount,
	}).Info("savings deposit recorded")

	return deposit, nil
}

// ReverseDeposit deletes a deposit by administrative action. Savings totals
// are derived sums, so the member's balance shrinks immediately; loans
// already issued against the old balance are not re-checked.
func (s *LedgerService) ReverseDeposit(ctx context.Context, depositID uuid.UUID) (*domain.SavingsDeposit, error) {
	deposit, err := s.depositRepo.GetByID(ctx, s.db, depositID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapDepositNotFound(depositID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err := s.depositRepo.Delete(ctx, s.db, depositID); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"deposit_id": depositID,
		"member_id":  deposit.MemberID,
		"amount":     deposit.Amount,
	}).Warn("savings deposit reversed")

	return deposit, nil
}

// ListDeposits returns a member's deposit history.
func (s *LedgerService) ListDeposits(ctx context.Context, memberID uuid.UUID) ([]*domain.SavingsDeposit, error) {
	exists, err := s.memberRepo.Exists(ctx, s.db, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !exists {
		return nil, customError.WrapMemberNotFound(memberID.String())
	}

	deposits, err := s.depositRepo.ListByMember(ctx, s.db, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return deposits, nil
}

// TotalSavings returns a member's derived savings balance.
func (s *LedgerService) TotalSavings(ctx context.Context, memberID uuid.UUID) (decimal.Decimal, error) {
	exists, err := s.memberRepo.Exists(ctx, s.db, memberID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	if !exists {
		return decimal.Zero, customError.WrapMemberNotFound(memberID.String())
	}

	total, err := s.depositRepo.TotalByMember(ctx, s.db, memberID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}

	return total, nil
}

// CheckEligibility runs the advisory eligibility evaluation without creating
// anything. CreateLoan repeats the same checks inside its transaction.
func (s *LedgerService) CheckEligibility(ctx context.Context, memberID uuid.UUID, req *domain.CreateLoanRequest) (*loan.EligibilityResult, error) {
	exists, err := s.memberRepo.Exists(ctx, s.db, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !exists {
		return nil, customError.WrapMemberNotFound(memberID.String())
	}

	savings, err := s.depositRepo.TotalByMember(ctx, s.db, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	hasActive := true
	if _, err := s.loanRepo.GetActiveByMember(ctx, s.db, memberID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapDatabaseError(err)
		}
		hasActive = false
	}

	result := s.eligibility.Evaluate(loan.EligibilityInput{
		TotalSavings:   savings,
		HasActiveLoan:  hasActive,
		Amount:         req.Amount,
		MonthlyPayment: req.MonthlyPayment,
	})

	return &result, nil
}

// CreateLoan issues a loan after re-validating eligibility against row-locked
// state, closing the race between an advisory check and the commit.
func (s *LedgerService) CreateLoan(ctx context.Context, memberID uuid.UUID, req *domain.CreateLoanRequest) (*domain.LoanAccount, error) {
	var created *domain.LoanAccount

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		exists, err := s.memberRepo.Exists(ctx, tx, memberID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !exists {
			return customError.WrapMemberNotFound(memberID.String())
		}

		// Lock the member's active loan row, if any, so a racing payment
		// cannot complete it between the check and the insert.
		hasActive := true
		if _, err := s.loanRepo.GetActiveByMemberForUpdate(ctx, tx, memberID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return customError.WrapDatabaseError(err)
			}
			hasActive = false
		}

		savings, err := s.depositRepo.TotalByMember(ctx, tx, memberID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		result := s.eligibility.Evaluate(loan.EligibilityInput{
			TotalSavings:   savings,
			HasActiveLoan:  hasActive,
			Amount:         req.Amount,
			MonthlyPayment: req.MonthlyPayment,
		})
		if !result.Approved {
			if hasActive && len(result.Reasons) == 1 {
				return customError.WrapActiveLoanExists(memberID.String())
			}
			return customError.WrapLoanNotEligible(result.Reasons)
		}

		now := s.now()
		principal := domain.RoundMoney(req.Amount)
		created = &domain.LoanAccount{
			ID:                  uuid.New(),
			MemberID:            memberID,
			Principal:           principal,
			InterestRate:        s.config.GetMonthlyInterestRate(),
			MonthlyPayment:      domain.RoundMoney(req.MonthlyPayment),
			RemainingBalance:    principal,
			CurrentInterestDue:  domain.ZeroMoney,
			AccumulatedLateFees: domain.ZeroMoney,
			TotalPaid:           domain.ZeroMoney,
			PeriodsElapsed:      0,
			NextDueDate:         now.AddDate(0, 1, 0),
			Status:              domain.LoanStatusActive,
			ApprovedAt:          now,
			UpdatedAt:           now,
		}

		if err := s.loanRepo.Create(ctx, tx, created); err != nil {
			if isUniqueViolation(err) {
				return customError.WrapActiveLoanExists(memberID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"loan_id":   created.ID,
		"member_id": memberID,
		"principal": created.Principal,
	}).Info("loan approved")

	return created, nil
}

// GetLoan returns the loan with its dues accrued to now. The accrual here is
// a read-only view; the stored row only moves under a locked mutation.
func (s *LedgerService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanAccount, error) {
	l, err := s.loanRepo.GetByID(ctx, s.db, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.accrual.Accrue(l, s.now())
	return l, nil
}

// PreviewPayment runs the canonical waterfall against the loan's accrued dues
// without touching anything. Frontends render this instead of re-deriving the
// split themselves.
func (s *LedgerService) PreviewPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (*domain.PreviewResponse, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	amount = domain.RoundMoney(amount)
	b, err := s.allocator.Allocate(l, amount)
	if err != nil {
		return nil, err
	}

	clearance := l.ClearanceAmount()
	return &domain.PreviewResponse{
		LoanID:          l.ID,
		Amount:          amount,
		LateFeesPaid:    b.LateFeesPaid,
		InterestPaid:    b.InterestPaid,
		PrincipalPaid:   b.PrincipalPaid,
		WouldComplete:   amount.Equal(clearance),
		ClearanceAmount: clearance,
	}, nil
}

// RecordPayment accrues the loan to now, allocates the payment through the
// waterfall and applies it, all under the loan's row lock. Nothing is
// persisted when allocation rejects the amount.
func (s *LedgerService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) (*domain.Payment, error) {
	var payment *domain.Payment
	var completed bool

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		l, err := s.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapLoanNotFound(loanID.String())
			}
			return customError.WrapDatabaseError(err)
		}
		if !l.IsActive() {
			return customError.WrapLoanAlreadyClosed(loanID.String())
		}

		now := s.now()
		s.accrual.Accrue(l, now)

		b, err := s.allocator.Allocate(l, domain.RoundMoney(amount))
		if err != nil {
			return err
		}
		if err := s.allocator.Apply(l, b); err != nil {
			return err
		}

		payment = &domain.Payment{
			ID:            uuid.New(),
			LoanID:        l.ID,
			TotalAmount:   b.Total(),
			LateFeesPaid:  b.LateFeesPaid,
			InterestPaid:  b.InterestPaid,
			PrincipalPaid: b.PrincipalPaid,
			CreatedAt:     now,
		}

		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.loanRepo.Update(ctx, tx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		completed = l.Status == domain.LoanStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)
	fields := logrus.Fields{
		"loan_id":        loanID,
		"late_fees_paid": payment.LateFeesPaid,
		"interest_paid":  payment.InterestPaid,
		"principal_paid": payment.PrincipalPaid,
	}
	if completed {
		s.log.WithFields(fields).Info("payment recorded, loan fully paid off")
	} else {
		s.log.WithFields(fields).Info("payment recorded")
	}

	return payment, nil
}

// ListPayments returns a loan's payment history.
func (s *LedgerService) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(ctx, s.db, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	payments, err := s.paymentRepo.ListByLoan(ctx, s.db, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

// ReverseLoan deletes a loan by administrative action. Its payments cascade
// away with it at the schema level.
func (s *LedgerService) ReverseLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanAccount, error) {
	var reversed *domain.LoanAccount

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		l, err := s.loanRepo.GetByIDForUpdate(ctx, tx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapLoanNotFound(loanID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		if err := s.loanRepo.Delete(ctx, tx, loanID); err != nil {
			return customError.WrapDatabaseError(err)
		}

		reversed = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"loan_id":   loanID,
		"member_id": reversed.MemberID,
		"principal": reversed.Principal,
	}).Warn("loan reversed with its payments")

	return reversed, nil
}

// ReversePayment deletes a payment and puts its three buckets back onto the
// loan's outstanding fields. A loan the payment had completed goes back to
// active.
func (s *LedgerService) ReversePayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	var reversed *domain.Payment

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		p, err := s.paymentRepo.GetByID(ctx, tx, paymentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return customError.WrapPaymentNotFound(paymentID.String())
			}
			return customError.WrapDatabaseError(err)
		}

		l, err := s.loanRepo.GetByIDForUpdate(ctx, tx, p.LoanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		s.allocator.Revert(l, loan.Breakdown{
			LateFeesPaid:  p.LateFeesPaid,
			InterestPaid:  p.InterestPaid,
			PrincipalPaid: p.PrincipalPaid,
		})

		if err := s.paymentRepo.Delete(ctx, tx, paymentID); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.loanRepo.Update(ctx, tx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		reversed = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)
	s.log.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"loan_id":    reversed.LoanID,
		"amount":     reversed.TotalAmount,
	}).Warn("payment reversed")

	return reversed, nil
}

// AccrueLoans advances every active loan's dues to asOf, one short
// transaction per loan so a long sweep never holds more than one row lock.
// Returns how many loans changed.
func (s *LedgerService) AccrueLoans(ctx context.Context, asOf time.Time) (int, error) {
	ids, err := s.loanRepo.ListActiveIDs(ctx, s.db)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	changed := 0
	for _, id := range ids {
		err := s.withTx(ctx, func(tx *sqlx.Tx) error {
			l, err := s.loanRepo.GetByIDForUpdate(ctx, tx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					// reversed between the listing and the lock
					return nil
				}
				return customError.WrapDatabaseError(err)
			}

			if !s.accrual.Accrue(l, asOf) {
				return nil
			}

			if err := s.loanRepo.Update(ctx, tx, l); err != nil {
				return customError.WrapDatabaseError(err)
			}

			changed++
			return nil
		})
		if err != nil {
			s.log.WithError(err).WithField("loan_id", id).Error("accrual failed for loan")
		}
	}

	if changed > 0 {
		s.invalidateStatsCache(ctx)
	}
	s.log.WithFields(logrus.Fields{
		"active":  len(ids),
		"changed": changed,
	}).Info("accrual sweep finished")

	return changed, nil
}

// DueSoonLoans lists active loans whose next installment falls within the
// given number of days. The scheduler reports these; delivery of reminders
// is someone else's job.
func (s *LedgerService) DueSoonLoans(ctx context.Context, days int) ([]*domain.LoanAccount, error) {
	cutoff := s.now().AddDate(0, 0, days)
	loans, err := s.loanRepo.ListDueBy(ctx, s.db, cutoff)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return loans, nil
}

// DashboardStats derives the portfolio KPIs from stored sums, cached briefly
// in Redis since the dashboard polls far more often than the ledger moves.
func (s *LedgerService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	totals, err := s.statsRepo.Totals(ctx, s.db)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	stats := deriveStats(totals)
	s.cacheStats(ctx, stats)

	return stats, nil
}

// deriveStats computes the ratio KPIs from the stored sums.
func deriveStats(totals *repository.LedgerTotals) *domain.DashboardStats {
	hundred := decimal.NewFromInt(100)

	cash := totals.TotalSavings.Sub(totals.OutstandingPrincipal)
	if cash.IsNegative() {
		cash = decimal.Zero
	}

	liquidity := decimal.Zero
	if totals.TotalSavings.GreaterThan(decimal.Zero) {
		liquidity = cash.Div(totals.TotalSavings).Mul(hundred).Round(2)
	}

	recovery := decimal.Zero
	if totals.TotalPrincipalLoaned.GreaterThan(decimal.Zero) {
		recovery = totals.TotalPrincipalCollected.Div(totals.TotalPrincipalLoaned).Mul(hundred).Round(2)
	}

	return &domain.DashboardStats{
		TotalMembers:            totals.TotalMembers,
		TotalLoansIssued:        totals.TotalLoansIssued,
		TotalSavings:            totals.TotalSavings,
		OutstandingPrincipal:    totals.OutstandingPrincipal,
		TotalPrincipalLoaned:    totals.TotalPrincipalLoaned,
		TotalPrincipalCollected: totals.TotalPrincipalCollected,
		TotalInterestCollected:  totals.TotalInterestCollected,
		TotalLateFeesCollected:  totals.TotalLateFeesCollected,
		ProjectedLateFees:       totals.ProjectedLateFees,
		CashInVault:             cash,
		LiquidityRatio:          liquidity,
		RecoveryRate:            recovery,
		NetProfit:               totals.TotalInterestCollected.Add(totals.TotalLateFeesCollected),
	}
}

func (s *LedgerService) cachedStats(ctx context.Context) *domain.DashboardStats {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).Warn("stats cache read failed")
		}
		return nil
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		s.log.WithError(err).Warn("stats cache entry corrupt, ignoring")
		return nil
	}

	return &stats
}

func (s *LedgerService) cacheStats(ctx context.Context, stats *domain.DashboardStats) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, statsCacheKey, raw, s.config.GetStatsCacheTTL()).Err(); err != nil {
		s.log.WithError(err).Warn(customError.WrapCacheError(err).Message)
	}
}

func (s *LedgerService) invalidateStatsCache(ctx context.Context) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, statsCacheKey).Err(); err != nil {
		s.log.WithError(err).Warn("stats cache invalidation failed")
	}
}

// withTx runs fn inside a transaction, retrying whole units of work on
// serialization and deadlock failures before surfacing a conflict.
func (s *LedgerService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < s.config.Business.TxRetries; attempt++ {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return customError.WrapDatabaseError(err)
		}

		return nil
	}

	return customError.WrapConcurrentConflict(lastErr)
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
