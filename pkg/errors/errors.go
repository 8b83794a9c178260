package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrArithmeticInvariant = errors.New("arithmetic invariant violated")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeMemberNotFound      = "MEMBER_NOT_FOUND"
	ErrCodeLoanNotFound        = "LOAN_NOT_FOUND"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeDepositNotFound     = "DEPOSIT_NOT_FOUND"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodePhoneTaken          = "PHONE_ALREADY_REGISTERED"
	ErrCodeLoanNotEligible     = "LOAN_NOT_ELIGIBLE"
	ErrCodeActiveLoanExists    = "ACTIVE_LOAN_EXISTS"
	ErrCodeLoanAlreadyClosed   = "LOAN_ALREADY_CLOSED"
	ErrCodeOverpayment         = "OVERPAYMENT"
	ErrCodeConcurrentConflict  = "CONCURRENT_CONFLICT"
	ErrCodeArithmeticInvariant = "ARITHMETIC_INVARIANT"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapMemberNotFound(memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeMemberNotFound,
		fmt.Sprintf("Member with ID %s not found", memberID),
		ErrNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrNotFound,
	)
}

func WrapDepositNotFound(depositID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDepositNotFound,
		fmt.Sprintf("Deposit with ID %s not found", depositID),
		ErrNotFound,
	)
}

func WrapPhoneTaken(phone string) *BusinessError {
	return NewBusinessError(
		ErrCodePhoneTaken,
		fmt.Sprintf("Phone number %s is already registered to a member", phone),
		ErrConflict,
	)
}

func WrapInvalidAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Amount must be greater than zero, got %s", amount),
		ErrValidation,
	)
}

func WrapLoanNotEligible(reasons []string) *BusinessError {
	msg := "Loan request rejected"
	for _, r := range reasons {
		msg += "; " + r
	}
	return NewBusinessError(ErrCodeLoanNotEligible, msg, ErrValidation)
}

func WrapActiveLoanExists(memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeActiveLoanExists,
		fmt.Sprintf("Member %s already has an active loan", memberID),
		ErrConflict,
	)
}

func WrapLoanAlreadyClosed(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyClosed,
		fmt.Sprintf("Loan with ID %s is already fully paid", loanID),
		ErrValidation,
	)
}

// WrapOverpayment reports the maximum acceptable payment so the caller can
// surface the exact bound that was exceeded.
func WrapOverpayment(maxPayable decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Overpayment: total to clear the loan including fees and interest is %s", maxPayable),
		ErrValidation,
	)
}

func WrapConcurrentConflict(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentConflict,
		"Concurrent mutation lost a race, retry the request",
		errors.Join(ErrConflict, err),
	)
}

// WrapArithmeticInvariant flags a waterfall breakdown that failed to sum or a
// due field driven negative. This is always a bug, never user input.
func WrapArithmeticInvariant(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeArithmeticInvariant,
		detail,
		ErrArithmeticInvariant,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
