// Package apperror defines the error taxonomy shared by services and
// translated to responses at the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindAuthentication Kind = "AUTHENTICATION"
	KindForbidden      Kind = "FORBIDDEN"
	KindIntegrity      Kind = "INTEGRITY"
	KindTransient      Kind = "TRANSIENT"
	KindUpstream       Kind = "UPSTREAM"
	KindInternal       Kind = "INTERNAL"
)

// Machine-readable codes returned to clients.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeAmountLimitExceeded = "AMOUNT_LIMIT_EXCEEDED"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeBalanceNotFound     = "BALANCE_NOT_FOUND"
	CodeTokenConflict       = "TOKEN_CONFLICT"

	CodeInvalidPlan          = "INVALID_PLAN"
	CodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	CodeSubscriptionInactive = "SUBSCRIPTION_INACTIVE"

	CodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	CodeTransactionNotPending = "TRANSACTION_NOT_PENDING"

	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeUnknownProduct    = "UNKNOWN_PRODUCT"
	CodeAmountMismatch    = "AMOUNT_MISMATCH"
	CodeCurrencyMismatch  = "CURRENCY_MISMATCH"
	CodeProductMismatch   = "PRODUCT_MISMATCH"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeOrderState        = "INVALID_ORDER_STATE"
	CodeWebhookInProgress = "WEBHOOK_IN_PROGRESS"
	CodePlanNotConfigured = "PLAN_NOT_CONFIGURED"

	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeProviderTimeout  = "PROVIDER_TIMEOUT"
	CodeProviderRejected = "PROVIDER_REJECTED"

	CodeDatabase       = "DB_ERROR"
	CodeStorageTimeout = "STORAGE_TIMEOUT"
	CodeInternal       = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Conflict(code, message string) *Error { return New(KindConflict, code, message) }

func Unauthenticated(code, message string) *Error { return New(KindAuthentication, code, message) }

func Forbidden(message string) *Error { return New(KindForbidden, CodeForbidden, message) }

func Integrity(code, message string) *Error { return New(KindIntegrity, code, message) }

func Transient(code, message string, err error) *Error {
	return Wrap(KindTransient, code, message, err)
}

// Upstream wraps an explicit rejection from an external provider.
func Upstream(code, message string, err error) *Error {
	return Wrap(KindUpstream, code, message, err)
}

// Database wraps an unexpected storage failure.
func Database(err error) *Error {
	return Wrap(KindInternal, CodeDatabase, "database operation failed", err)
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
