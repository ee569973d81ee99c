package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized        ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden           ErrorType = "FORBIDDEN"
	ErrorTypeConflict            ErrorType = "CONFLICT"
	ErrorTypeInvalidState        ErrorType = "INVALID_STATE"
	ErrorTypeInsufficientBalance ErrorType = "INSUFFICIENT_BALANCE"
	ErrorTypeInternal            ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidCategory  ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidEnum      ErrorCode = "INVALID_ENUM_VALUE"
	ErrCodeInvalidDays      ErrorCode = "INVALID_DAYS"
	ErrCodeInvalidReporting ErrorCode = "INVALID_REPORTING"

	ErrCodeRequestNotFound     ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeRequestOverlap      ErrorCode = "REQUEST_OVERLAP"
	ErrCodeRequestNotPending   ErrorCode = "REQUEST_NOT_PENDING"
	ErrCodeDecisionNotAllowed  ErrorCode = "DECISION_NOT_ALLOWED"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeBalanceNotFound     ErrorCode = "BALANCE_NOT_FOUND"

	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUsernameTaken     ErrorCode = "USERNAME_TAKEN"
	ErrCodeUserHasReports    ErrorCode = "USER_HAS_REPORTS"
	ErrCodeUserHasPending    ErrorCode = "USER_HAS_PENDING_REQUESTS"
	ErrCodeUserNotManageable ErrorCode = "USER_NOT_MANAGEABLE"

	ErrCodeInfoRequestNotFound ErrorCode = "INFO_REQUEST_NOT_FOUND"
	ErrCodeInfoRequestResolved ErrorCode = "INFO_REQUEST_RESOLVED"
	ErrCodeAdminOnly           ErrorCode = "ADMIN_ONLY"
	ErrCodeRoleNotAllowed      ErrorCode = "ROLE_NOT_ALLOWED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so sentinel values survive copies and wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy; sentinels are shared and must not be mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInvalidStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInsufficientBalanceError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientBalance,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrRequestNotFound     = NewNotFoundError("request not found", ErrCodeRequestNotFound)
	ErrRequestOverlap      = NewConflictError("a request already exists for these dates", ErrCodeRequestOverlap)
	ErrRequestNotPending   = NewInvalidStateError("request has already been decided", ErrCodeRequestNotPending)
	ErrDecisionNotAllowed  = NewForbiddenError("actor is not allowed to decide this request", ErrCodeDecisionNotAllowed)
	ErrInsufficientBalance = NewInsufficientBalanceError("insufficient leave balance", ErrCodeInsufficientBalance)
	ErrBalanceNotFound     = NewNotFoundError("leave balance not found", ErrCodeBalanceNotFound)

	ErrUserNotFound      = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrUsernameTaken     = NewConflictError("username already exists", ErrCodeUsernameTaken)
	ErrUserHasReports    = NewForbiddenError("user still has subordinates", ErrCodeUserHasReports)
	ErrUserHasPending    = NewForbiddenError("user still has pending requests", ErrCodeUserHasPending)
	ErrUserNotManageable = NewForbiddenError("actor cannot manage this user", ErrCodeUserNotManageable)

	ErrInfoRequestNotFound = NewNotFoundError("info request not found", ErrCodeInfoRequestNotFound)
	ErrInfoRequestResolved = NewInvalidStateError("info request is already resolved", ErrCodeInfoRequestResolved)
	ErrAdminOnly           = NewForbiddenError("only an admin can perform this action", ErrCodeAdminOnly)

	ErrInvalidCredentials = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("user account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType reports whether err carries an AppError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
