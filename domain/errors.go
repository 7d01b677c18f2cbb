package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalid          ErrorCode = "INVALID"
	ErrCodeInvalidReference ErrorCode = "INVALID_REFERENCE"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeUnavailable      ErrorCode = "UNAVAILABLE"
	ErrCodeDeserialization  ErrorCode = "DESERIALIZATION"
	ErrCodeInternal         ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgument reports a malformed field value.
func NewInvalidArgument(field, reason string) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf("%s %s", field, reason))
}

// NewInvalidReference reports a reference to an entity that does not exist.
func NewInvalidReference(entity, id string) *Error {
	return NewError(ErrCodeInvalidReference, fmt.Sprintf("%s %q does not exist", entity, id))
}

// NewBusinessRuleViolation names the cross-entity rule that failed.
func NewBusinessRuleViolation(rule, message string) *Error {
	return NewError(ErrCodeBusinessRule, fmt.Sprintf("%s: %s", rule, message))
}

// NewTransient marks an infrastructure failure as retryable.
func NewTransient(operation string, err error) *Error {
	return WrapError(ErrCodeUnavailable, operation, err)
}

// NewDeserializationError marks a payload as unreadable.
func NewDeserializationError(err error) *Error {
	return WrapError(ErrCodeDeserialization, "cannot decode message", err)
}

// Common domain errors.
var (
	ErrInvalidAmount       = NewError(ErrCodeInvalid, "amount must be different from zero")
	ErrTransactionNotFound = NewError(ErrCodeNotFound, "transaction not found")
	ErrCategoryNotFound    = NewError(ErrCodeNotFound, "category not found")
	ErrPersonNotFound      = NewError(ErrCodeNotFound, "person not found")
	ErrCategoryInUse       = NewError(ErrCodeConflict, "category is referenced by transactions")
	ErrPersonInUse         = NewError(ErrCodeConflict, "person is referenced by transactions")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
)

// Business rule names.
const (
	RuleMinorIncome  = "minor-income"
	RuleCategoryType = "category-type"
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the classification of err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
