package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kimanzi/sacco-ledger/internal/config"
	"github.com/kimanzi/sacco-ledger/internal/domain"
	"github.com/kimanzi/sacco-ledger/internal/service"
	"github.com/kimanzi/sacco-ledger/tests/mocks"
)

type handlerFixture struct {
	router      *mux.Router
	dbMock      sqlmock.Sqlmock
	memberRepo  *mocks.MockMemberRepository
	depositRepo *mocks.MockDepositRepository
	loanRepo    *mocks.MockLoanRepository
	paymentRepo *mocks.MockPaymentRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	mockDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	cfg := &config.Config{
		Business: config.BusinessConfig{
			MonthlyInterestRate: "0.015",
			LateFeeRate:         "0.03",
			SavingsMultiplier:   "2",
			TxRetries:           3,
			StatsCacheTTL:       "30s",
		},
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &handlerFixture{
		dbMock:      dbMock,
		memberRepo:  new(mocks.MockMemberRepository),
		depositRepo: new(mocks.MockDepositRepository),
		loanRepo:    new(mocks.MockLoanRepository),
		paymentRepo: new(mocks.MockPaymentRepository),
	}

	svc := service.NewLedgerService(
		sqlx.NewDb(mockDB, "sqlmock"),
		f.memberRepo, f.depositRepo, f.loanRepo, f.paymentRepo,
		new(mocks.MockStatsRepository), nil, log, cfg,
	)
	h := NewLedgerHandler(svc, log)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/members", h.RegisterMember).Methods(http.MethodPost)
	api.HandleFunc("/members/{memberId}/deposits", h.RecordDeposit).Methods(http.MethodPost)
	api.HandleFunc("/members/{memberId}/loans", h.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/members/{memberId}/loans/eligibility", h.CheckEligibility).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", h.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/preview", h.PreviewPayment).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", h.RecordPayment).Methods(http.MethodPost)
	f.router = r

	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf).WithContext(context.Background())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// active loan with clearance 12000, next due date far enough out that the
// read-side accrual stays quiet
func handlerLoanFixture() *domain.LoanAccount {
	return &domain.LoanAccount{
		ID:                  uuid.New(),
		MemberID:            uuid.New(),
		Principal:           domain.MustMoney("10000.00"),
		MonthlyPayment:      domain.MustMoney("1000.00"),
		RemainingBalance:    domain.MustMoney("10000.00"),
		CurrentInterestDue:  domain.MustMoney("1500.00"),
		AccumulatedLateFees: domain.MustMoney("500.00"),
		NextDueDate:         time.Now().AddDate(1, 0, 0),
		Status:              domain.LoanStatusActive,
	}
}

func TestRegisterMemberHandler(t *testing.T) {
	t.Run("returns 201 with the new member", func(t *testing.T) {
		f := newHandlerFixture(t)

		f.memberRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		rec := f.do(t, http.MethodPost, "/api/v1/members",
			map[string]string{"full_name": "Wanjiku Kamau", "phone": "+254700111222"})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "Wanjiku Kamau")
	})

	t.Run("returns 400 when the name is missing", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/members",
			map[string]string{"phone": "+254700111222"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.memberRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecordDepositHandler(t *testing.T) {
	t.Run("returns 201 with the deposit", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(true, nil)
		f.depositRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/deposits",
			map[string]string{"amount": "2500.00"})

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("returns 400 for a malformed member id", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/members/not-a-uuid/deposits",
			map[string]string{"amount": "2500.00"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 404 for an unknown member", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(false, nil)

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/deposits",
			map[string]string{"amount": "2500.00"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateLoanHandler(t *testing.T) {
	t.Run("returns 409 when the member already has an active loan", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.dbMock.ExpectBegin()
		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(true, nil)
		f.loanRepo.On("GetActiveByMemberForUpdate", mock.Anything, mock.Anything, memberID).Return(handlerLoanFixture(), nil)
		f.depositRepo.On("TotalByMember", mock.Anything, mock.Anything, memberID).Return(domain.MustMoney("100000.00"), nil)
		f.dbMock.ExpectRollback()

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/loans",
			map[string]string{"amount": "50000.00", "monthly_payment": "5000.00"})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("returns 400 with every rejection reason", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.dbMock.ExpectBegin()
		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(true, nil)
		f.loanRepo.On("GetActiveByMemberForUpdate", mock.Anything, mock.Anything, memberID).Return(nil, sql.ErrNoRows)
		f.depositRepo.On("TotalByMember", mock.Anything, mock.Anything, memberID).Return(domain.ZeroMoney, nil)
		f.dbMock.ExpectRollback()

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/loans",
			map[string]string{"amount": "50000.00", "monthly_payment": "5000.00"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "no savings balance")
	})
}

func TestCheckEligibilityHandler(t *testing.T) {
	t.Run("returns the advisory verdict without creating anything", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(true, nil)
		f.depositRepo.On("TotalByMember", mock.Anything, mock.Anything, memberID).Return(domain.MustMoney("100000.00"), nil)
		f.loanRepo.On("GetActiveByMember", mock.Anything, mock.Anything, memberID).Return(nil, sql.ErrNoRows)

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/loans/eligibility",
			map[string]string{"amount": "200000.00", "monthly_payment": "10000.00"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"approved":true`)
		f.loanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lists every violated rule", func(t *testing.T) {
		f := newHandlerFixture(t)
		memberID := uuid.New()

		f.memberRepo.On("Exists", mock.Anything, mock.Anything, memberID).Return(true, nil)
		f.depositRepo.On("TotalByMember", mock.Anything, mock.Anything, memberID).Return(domain.ZeroMoney, nil)
		f.loanRepo.On("GetActiveByMember", mock.Anything, mock.Anything, memberID).Return(handlerLoanFixture(), nil)

		rec := f.do(t, http.MethodPost, "/api/v1/members/"+memberID.String()+"/loans/eligibility",
			map[string]string{"amount": "50000.00", "monthly_payment": "5000.00"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"approved":false`)
		assert.Contains(t, rec.Body.String(), "no savings balance")
		assert.Contains(t, rec.Body.String(), "active loan")
	})
}

func TestRecordPaymentHandler(t *testing.T) {
	t.Run("returns 422 naming the maximum on overpayment", func(t *testing.T) {
		f := newHandlerFixture(t)
		l := handlerLoanFixture()

		f.dbMock.ExpectBegin()
		f.loanRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, l.ID).Return(l, nil)
		f.dbMock.ExpectRollback()

		rec := f.do(t, http.MethodPost, "/api/v1/loans/"+l.ID.String()+"/payments",
			map[string]string{"amount": "12000.01"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "12000")
	})

	t.Run("returns 201 with the waterfall breakdown", func(t *testing.T) {
		f := newHandlerFixture(t)
		l := handlerLoanFixture()

		f.dbMock.ExpectBegin()
		f.loanRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, l.ID).Return(l, nil)
		f.paymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.loanRepo.On("Update", mock.Anything, mock.Anything, l).Return(nil)
		f.dbMock.ExpectCommit()

		rec := f.do(t, http.MethodPost, "/api/v1/loans/"+l.ID.String()+"/payments",
			map[string]string{"amount": "2000.00"})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var envelope struct {
			Data domain.Payment `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.True(t, envelope.Data.LateFeesPaid.Equal(domain.MustMoney("500.00")))
		assert.True(t, envelope.Data.InterestPaid.Equal(domain.MustMoney("1500.00")))
		assert.True(t, envelope.Data.PrincipalPaid.IsZero())
	})
}

func TestGetLoanHandler(t *testing.T) {
	t.Run("returns 404 for an unknown loan", func(t *testing.T) {
		f := newHandlerFixture(t)
		loanID := uuid.New()

		f.loanRepo.On("GetByID", mock.Anything, mock.Anything, loanID).Return(nil, sql.ErrNoRows)

		rec := f.do(t, http.MethodGet, "/api/v1/loans/"+loanID.String(), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns the loan with its clearance amount", func(t *testing.T) {
		f := newHandlerFixture(t)
		l := handlerLoanFixture()

		f.loanRepo.On("GetByID", mock.Anything, mock.Anything, l.ID).Return(l, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/loans/"+l.ID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "clearance_amount")
		assert.Contains(t, rec.Body.String(), "12000")
	})
}

func TestPreviewPaymentHandler(t *testing.T) {
	t.Run("returns 400 for a missing amount parameter", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/loans/"+uuid.New().String()+"/preview", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns the breakdown without persisting anything", func(t *testing.T) {
		f := newHandlerFixture(t)
		l := handlerLoanFixture()

		f.loanRepo.On("GetByID", mock.Anything, mock.Anything, l.ID).Return(l, nil)

		rec := f.do(t, http.MethodGet, "/api/v1/loans/"+l.ID.String()+"/preview?amount=12000.00", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"would_complete":true`)
		f.loanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}
