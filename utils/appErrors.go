package utils

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorKind classifies an AppError for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindSecurity
	KindExhaustion
	KindConfiguration
	KindGateway
	KindInfra
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

// Error codes returned to clients.
const (
	CodeValidationError           = "VALIDATION_ERROR"
	CodeInvalidRange              = "INVALID_RANGE"
	CodeDateOutOfRange            = "DATE_OUT_OF_RANGE"
	CodeDateTooFarAhead           = "DATE_TOO_FAR_AHEAD"
	CodeMalformedPayload          = "MALFORMED_PAYLOAD"
	CodeSlotsNotFound             = "SLOTS_NOT_FOUND"
	CodeConsultantNotFound        = "CONSULTANT_NOT_FOUND"
	CodeAppointmentNotFound       = "APPOINTMENT_NOT_FOUND"
	CodePaymentNotFound           = "PAYMENT_NOT_FOUND"
	CodePaymentRecordNotFound     = "PAYMENT_RECORD_NOT_FOUND"
	CodeInsufficientShiftCapacity = "INSUFFICIENT_SHIFT_CAPACITY"
	CodeSlotConflict              = "SLOT_CONFLICT"
	CodeLockUnavailable           = "LOCK_UNAVAILABLE"
	CodeMissingSignature          = "MISSING_SIGNATURE"
	CodeInvalidSignature          = "INVALID_SIGNATURE"
	CodeTokenAllocationExhausted  = "TOKEN_ALLOCATION_EXHAUSTED"
	CodeCounterExhausted          = "COUNTER_EXHAUSTED"
	CodeConfigurationError        = "CONFIGURATION_ERROR"
	CodeCounterMissing            = "COUNTER_MISSING"
	CodeGatewayError              = "GATEWAY_ERROR"
	CodeReconciliationFailed      = "RECONCILIATION_FAILED"
	CodeDatabaseError             = "DATABASE_ERROR"
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeForbidden                 = "FORBIDDEN"
	CodeRateLimited               = "RATE_LIMITED"
)

// AppError is the error type services hand to the transport layer.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error kind to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindSecurity:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindExhaustion:
		return http.StatusConflict
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	case KindGateway:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func WrapAppError(err error, kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

func ValidationError(message string) *AppError {
	return NewAppError(KindValidation, CodeValidationError, message)
}

func NotFoundError(code, message string) *AppError {
	return NewAppError(KindNotFound, code, message)
}

func ConfigurationError(message string) *AppError {
	return NewAppError(KindConfiguration, CodeConfigurationError, message)
}

func DatabaseError(err error, message string) *AppError {
	return WrapAppError(err, KindInfra, CodeDatabaseError, message)
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
