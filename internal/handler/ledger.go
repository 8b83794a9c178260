package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kimanzi/sacco-ledger/internal/domain"
	"github.com/kimanzi/sacco-ledger/internal/service"
	customError "github.com/kimanzi/sacco-ledger/pkg/errors"
	"github.com/kimanzi/sacco-ledger/pkg/response"
)

type LedgerHandler struct {
	service   *service.LedgerService
	validator *validator.Validate
	log       *logrus.Logger
}

func NewLedgerHandler(service *service.LedgerService, log *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: validator.New(),
		log:       log,
	}
}

// RegisterMember handles POST /members
func (h *LedgerHandler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	member, err := h.service.RegisterMember(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, member)
}

// GetMember handles GET /members/{memberId}
func (h *LedgerHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	member, err := h.service.GetMember(r.Context(), memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, member)
}

// RecordDeposit handles POST /members/{memberId}/deposits
func (h *LedgerHandler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	var req domain.RecordDepositRequest
	if !h.decode(w, r, &req) {
		return
	}

	deposit, err := h.service.RecordDeposit(r.Context(), memberID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, deposit)
}

// ListDeposits handles GET /members/{memberId}/deposits
func (h *LedgerHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	deposits, err := h.service.ListDeposits(r.Context(), memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, deposits)
}

// GetSavings handles GET /members/{memberId}/savings
func (h *LedgerHandler) GetSavings(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	total, err := h.service.TotalSavings(r.Context(), memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.SavingsResponse{
		MemberID:     memberID,
		TotalSavings: total,
	})
}

// CheckEligibility handles POST /members/{memberId}/loans/eligibility. It
// runs the same rules as loan creation but commits nothing, so frontends can
// show every violated rule before the member applies.
func (h *LedgerHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.CheckEligibility(r.Context(), memberID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, result)
}

// CreateLoan handles POST /members/{memberId}/loans
func (h *LedgerHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.pathUUID(w, r, "memberId")
	if !ok {
		return
	}

	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	l, err := h.service.CreateLoan(r.Context(), memberID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, domain.LoanResponse{
		Loan:            l,
		ClearanceAmount: l.ClearanceAmount(),
	})
}

// GetLoan handles GET /loans/{loanId}
func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.LoanResponse{
		Loan:            l,
		ClearanceAmount: l.ClearanceAmount(),
	})
}

// PreviewPayment handles GET /loans/{loanId}/preview?amount=
func (h *LedgerHandler) PreviewPayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		response.BadRequest(w, "amount query parameter must be a decimal", err)
		return
	}

	preview, err := h.service.PreviewPayment(r.Context(), loanID, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, preview)
}

// RecordPayment handles POST /loans/{loanId}/payments
func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var req domain.RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), loanID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, payment)
}

// ListPayments handles GET /loans/{loanId}/payments
func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, payments)
}

// DeleteLoan handles DELETE /loans/{loanId} (administrative reversal)
func (h *LedgerHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	reversed, err := h.service.ReverseLoan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, reversed)
}

// DeletePayment handles DELETE /payments/{paymentId} (administrative reversal)
func (h *LedgerHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := h.pathUUID(w, r, "paymentId")
	if !ok {
		return
	}

	reversed, err := h.service.ReversePayment(r.Context(), paymentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, reversed)
}

// DeleteDeposit handles DELETE /deposits/{depositId} (administrative reversal)
func (h *LedgerHandler) DeleteDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, ok := h.pathUUID(w, r, "depositId")
	if !ok {
		return
	}

	reversed, err := h.service.ReverseDeposit(r.Context(), depositID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, reversed)
}

// GetDashboardStats handles GET /dashboard/stats
func (h *LedgerHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, stats)
}

func (h *LedgerHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "request failed validation", err)
		return false
	}
	return true
}

// writeError maps the service error taxonomy onto HTTP statuses. Overpayment
// keeps its own status so clients can show the maximum payable amount.
func (h *LedgerHandler) writeError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if errors.As(err, &be) && be.Code == customError.ErrCodeOverpayment {
		response.Error(w, http.StatusUnprocessableEntity, be.Message, err)
		return
	}

	switch {
	case errors.Is(err, customError.ErrValidation):
		response.Error(w, http.StatusBadRequest, messageOf(err), err)
	case errors.Is(err, customError.ErrNotFound):
		response.Error(w, http.StatusNotFound, messageOf(err), err)
	case errors.Is(err, customError.ErrConflict):
		response.Error(w, http.StatusConflict, messageOf(err), err)
	default:
		h.log.WithError(err).Error("request failed")
		response.InternalServerError(w, "internal server error", err)
	}
}

func messageOf(err error) string {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
