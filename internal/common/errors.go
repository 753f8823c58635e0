package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrExternal     = errors.New("external service error")
)

// Error codes surfaced to API clients.
const (
	CodeConfig           = "CONFIG_ERROR"
	CodeValidation       = "VALIDATION_FAILED"
	CodeUploadRejected   = "UPLOAD_REJECTED"
	CodeCaptchaIncorrect = "CAPTCHA_INCORRECT"
	CodeAlreadySubmitted = "ALREADY_SUBMITTED"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeExtraction       = "EXTRACTION_FAILED"
	CodeScoring          = "SCORING_FAILED"
	CodeScoreUnparsable  = "SCORE_UNPARSABLE"
	CodeStore            = "STORE_FAILED"
	CodeReport           = "REPORT_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the AppError code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ValidationFailed builds a validation-class AppError.
func ValidationFailed(code, message string) *AppError {
	return NewAppError(code, message, ErrValidation)
}
