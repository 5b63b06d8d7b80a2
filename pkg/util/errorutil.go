package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the clinic API client, the auth context and the screens.
const (
	CodeNetwork        = "NETWORK_ERROR"
	CodeAuthentication = "AUTHENTICATION_FAILED"
	CodeRegistration   = "REGISTRATION_FAILED"
	CodeValidation     = "VALIDATION_FAILED"
	CodeConflict       = "CONFLICT"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewNetworkError reports that the clinic API could not be reached.
func NewNetworkError(err error) error {
	return &DomainError{
		Code:       CodeNetwork,
		Message:    "the clinic service could not be reached",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewAuthenticationError carries the server supplied reason for a rejected login.
func NewAuthenticationError(message string) error {
	if message == "" {
		message = "login failed"
	}
	return NewDomainError(CodeAuthentication, message, http.StatusUnauthorized, nil)
}

// NewRegistrationError carries the server supplied reason for a rejected registration.
func NewRegistrationError(message string) error {
	if message == "" {
		message = "registration failed"
	}
	return NewDomainError(CodeRegistration, message, http.StatusUnprocessableEntity, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusUnprocessableEntity, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus maps a non-2xx clinic API response to a DomainError.
// message is the `msg` field of the response body when present.
func FromStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewDomainError(CodeUnauthorized, orDefault(message, "session is no longer valid"), http.StatusUnauthorized, nil)
	case status == http.StatusNotFound:
		return NewDomainError(CodeNotFound, orDefault(message, "record not found"), http.StatusNotFound, nil)
	case status == http.StatusConflict:
		return NewConflict(orDefault(message, "record already exists"), nil)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(orDefault(message, "the request was rejected"), nil)
	default:
		return &DomainError{
			Code:       CodeInternal,
			Message:    orDefault(message, "the clinic service failed"),
			HTTPStatus: http.StatusBadGateway,
			Details:    map[string]any{"status": status},
		}
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewNetworkError(err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsValidation reports errors a form should surface inline while keeping user input.
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation) || HasCode(err, CodeConflict)
}

// UserMessage returns the message safe to show on a page.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Message
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
