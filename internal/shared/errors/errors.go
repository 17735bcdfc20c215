// Package errors provides application-level error types shared by use cases
// and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeInternal    ErrorType = "internal_error"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeUnavailable ErrorType = "service_unavailable"

	// Routing domain types.
	ErrorTypeInvalidDSL         ErrorType = "invalid_dsl"
	ErrorTypeRuleNotFound       ErrorType = "rule_not_found"
	ErrorTypeValidationFailed   ErrorType = "validation_failed"
	ErrorTypeNoEligibleAssignee ErrorType = "no_eligible_assignee"
	ErrorTypeCapacityRace       ErrorType = "capacity_race"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	// Payload carries structured data such as violation lists.
	Payload any `json:"payload,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// WithPayload attaches structured data to the error.
func (e *AppError) WithPayload(payload any) *AppError {
	e.Payload = payload
	return e
}

func newAppError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, details)
}

// NewUnavailableError reports a dependency that is not configured or reachable.
func NewUnavailableError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeUnavailable, http.StatusServiceUnavailable, message, details)
}

// NewInvalidDSLError reports a rule whose condition or DSL document does not parse.
func NewInvalidDSLError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInvalidDSL, http.StatusBadRequest, message, details)
}

// NewRuleNotFoundError reports a missing or deleted rule.
func NewRuleNotFoundError(ruleID string) *AppError {
	return newAppError(ErrorTypeRuleNotFound, http.StatusNotFound, "rule not found", []string{ruleID})
}

// NewValidationFailedError reports a record transition blocked by validation rules.
func NewValidationFailedError(message string, violations any) *AppError {
	return newAppError(ErrorTypeValidationFailed, http.StatusUnprocessableEntity, message, nil).WithPayload(violations)
}

// NewNoEligibleAssigneeError reports that no owner could take the record.
func NewNoEligibleAssigneeError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNoEligibleAssignee, http.StatusConflict, message, details)
}

// NewCapacityRaceError reports a lost optimistic capacity update.
func NewCapacityRaceError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeCapacityRace, http.StatusConflict, message, details)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasType reports whether err is an AppError of the given type.
func HasType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return HasType(err, ErrorTypeConflict)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return HasType(err, ErrorTypeNotFound) || HasType(err, ErrorTypeRuleNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return HasType(err, ErrorTypeValidation)
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// SQLite and PostgreSQL unique violation
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "unique constraint")
}
