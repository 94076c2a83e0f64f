package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("resource not found")
	ErrBlocked                 = errors.New("account blocked")
	ErrNoCapacityAvailable     = errors.New("no card with sufficient capacity available")
	ErrInvalidTransition       = errors.New("invalid transaction transition")
	ErrInsufficientBalance     = errors.New("insufficient trader balance")
	ErrCardInUse               = errors.New("card backs an open transaction")
	ErrAlreadyExists           = errors.New("resource already exists")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrConflict                = errors.New("concurrent modification")
	ErrActiveTransactionExists = errors.New("open transaction already exists for this currency")
)

// Error codes
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeBlocked                 = "BLOCKED"
	CodeNoCapacityAvailable     = "NO_CAPACITY_AVAILABLE"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeInsufficientBalance     = "INSUFFICIENT_BALANCE"
	CodeCardInUse               = "CARD_IN_USE"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeConflict                = "CONFLICT"
	CodeActiveTransactionExists = "ACTIVE_TRANSACTION_EXISTS"
	CodeInternalError           = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func Validation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message, ErrValidation)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func Blocked(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeBlocked, message, ErrBlocked)
}

func NoCapacityAvailable(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeNoCapacityAvailable, message, ErrNoCapacityAvailable)
}

func InvalidTransition(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeInvalidTransition, message, ErrInvalidTransition)
}

func InsufficientBalance(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeInsufficientBalance, message, ErrInsufficientBalance)
}

func CardInUse(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeCardInUse, message, ErrCardInUse)
}

func AlreadyExists(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyExists, message, ErrAlreadyExists)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func InvalidCredentials(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidCredentials, message, ErrInvalidCredentials)
}

// Conflict reports a lost optimistic update; the caller may retry.
func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func ActiveTransactionExists(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeActiveTransactionExists, message, ErrActiveTransactionExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// FromError converts err into an AppError. Bare sentinels get their
// canonical status; anything unknown becomes an internal error.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrValidation):
		return Validation(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFound(err.Error())
	case errors.Is(err, ErrBlocked):
		return Blocked(err.Error())
	case errors.Is(err, ErrNoCapacityAvailable):
		return NoCapacityAvailable(err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return InvalidTransition(err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		return InsufficientBalance(err.Error())
	case errors.Is(err, ErrCardInUse):
		return CardInUse(err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return AlreadyExists(err.Error())
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized(err.Error())
	case errors.Is(err, ErrForbidden):
		return Forbidden(err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return InvalidCredentials(err.Error())
	case errors.Is(err, ErrConflict):
		return Conflict(err.Error())
	case errors.Is(err, ErrActiveTransactionExists):
		return ActiveTransactionExists(err.Error())
	}
	return InternalError(err)
}
