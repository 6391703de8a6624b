package errors

import (
	"errors"
	"fmt"
)

// SyncError is a supplier-scoped failure of a sync task.
type SyncError struct {
	Type       string
	Supplier   string
	Message    string
	StatusCode int
	Snippet    string
	Cause      error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Supplier != "" {
		msg = fmt.Sprintf("%s (supplier: %s)", msg, e.Supplier)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s - %v", msg, e.Cause)
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Sync error types
const (
	ErrTypeAuthFailed        = "AUTH_FAILED"
	ErrTypeNetwork           = "NETWORK"
	ErrTypeTimeout           = "TIMEOUT"
	ErrTypeConfigMissing     = "CONFIG_MISSING"
	ErrTypeExtractionPartial = "EXTRACTION_PARTIAL"
	ErrTypeCredentialMissing = "CREDENTIAL_MISSING"
)

// NewAuthError reports rejected portal credentials.
func NewAuthError(supplier, message string) *SyncError {
	return &SyncError{
		Type:     ErrTypeAuthFailed,
		Supplier: supplier,
		Message:  message,
	}
}

// NewNetworkError reports a transport failure or unexpected HTTP status.
func NewNetworkError(supplier string, statusCode int, cause error) *SyncError {
	message := "portal request failed"
	if statusCode > 0 {
		message = fmt.Sprintf("portal responded with status %d", statusCode)
	}
	return &SyncError{
		Type:       ErrTypeNetwork,
		Supplier:   supplier,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewTimeoutError reports an exhausted time budget.
func NewTimeoutError(supplier string, cause error) *SyncError {
	return &SyncError{
		Type:     ErrTypeTimeout,
		Supplier: supplier,
		Message:  "portal request timed out",
		Cause:    cause,
	}
}

// NewConfigMissingError reports a supplier without declarative config.
func NewConfigMissingError(supplier string) *SyncError {
	return &SyncError{
		Type:     ErrTypeConfigMissing,
		Supplier: supplier,
		Message:  "no configuration for supplier",
	}
}

// NewCredentialMissingError reports a supplier the user holds no login for.
func NewCredentialMissingError(supplier string, cause error) *SyncError {
	return &SyncError{
		Type:     ErrTypeCredentialMissing,
		Supplier: supplier,
		Message:  "no stored credentials for supplier",
		Cause:    cause,
	}
}

// NewExtractionPartialError records a skipped item and its raw snippet.
func NewExtractionPartialError(supplier, message, snippet string) *SyncError {
	return &SyncError{
		Type:     ErrTypeExtractionPartial,
		Supplier: supplier,
		Message:  message,
		Snippet:  snippet,
	}
}

func typeOf(err error) string {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Type
	}
	return ""
}

func IsAuth(err error) bool {
	return typeOf(err) == ErrTypeAuthFailed
}

func IsConfigMissing(err error) bool {
	return typeOf(err) == ErrTypeConfigMissing
}

// IsTerminal reports errors that end a supplier task without retrying.
func IsTerminal(err error) bool {
	switch typeOf(err) {
	case ErrTypeAuthFailed, ErrTypeConfigMissing, ErrTypeCredentialMissing:
		return true
	}
	return false
}

// IsTransient reports network and timeout failures.
func IsTransient(err error) bool {
	switch typeOf(err) {
	case ErrTypeNetwork, ErrTypeTimeout:
		return true
	}
	return false
}

// TypeOf returns the sync error type of err, or INTERNAL.
func TypeOf(err error) string {
	if t := typeOf(err); t != "" {
		return t
	}
	return "INTERNAL"
}
