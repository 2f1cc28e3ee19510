package core

import (
	"errors"
	"fmt"
)

type AccountErrorType string

const (
	// Account lookup errors
	ErrKeyUserNotFound       AccountErrorType = "ErrUserNotFound"
	ErrKeyHashingFailed      AccountErrorType = "ErrHashingFailed"
	ErrKeyEmailAlreadyExists AccountErrorType = "ErrEmailAlreadyExists"

	// Password reset issuance errors
	ErrKeyResetRateLimited    AccountErrorType = "ErrResetRateLimited"
	ErrKeyResetDeliveryFailed AccountErrorType = "ErrResetDeliveryFailed"

	// Security token errors
	ErrKeySecurityTokenExpired AccountErrorType = "ErrSecurityTokenExpired"
	ErrKeySecurityInvalidToken AccountErrorType = "ErrSecurityInvalidToken"

	// Store or provider unavailable, safe to retry
	ErrKeyTransientFailure AccountErrorType = "ErrTransientFailure"
)

var defaultErrorMessages = map[AccountErrorType]string{
	ErrKeyUserNotFound:       "The requested user was not found.",
	ErrKeyHashingFailed:      "Failed to hash the password.",
	ErrKeyEmailAlreadyExists: "An account with this email already exists.",

	ErrKeyResetRateLimited:    "A password reset was requested too recently, please wait before trying again.",
	ErrKeyResetDeliveryFailed: "Failed to send reset password email, does the email exist?",

	ErrKeySecurityTokenExpired: "The security token has expired.",
	ErrKeySecurityInvalidToken: "Invalid reset key.",

	ErrKeyTransientFailure: "The account store is temporarily unavailable, please try again.",
}

// ErrorCodeToExitCode maps error keys to the exit codes of the operator CLI.
var ErrorCodeToExitCode = map[AccountErrorType]int{
	ErrKeyHashingFailed:        1,
	ErrKeyUserNotFound:         3,
	ErrKeyResetRateLimited:     4,
	ErrKeyResetDeliveryFailed:  5,
	ErrKeySecurityInvalidToken: 6,
	ErrKeySecurityTokenExpired: 7,
	ErrKeyTransientFailure:     75,
}

type AccountError struct {
	Key     AccountErrorType // A unique identifier for the error type
	Message string           // Human-readable error message
	Err     error            // Underlying error, if any
}

func (e *AccountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

func (e *AccountError) IsErrorType(key AccountErrorType) bool {
	return e.Key == key
}

// Retryable reports whether the caller may retry the same operation unchanged.
func (e *AccountError) Retryable() bool {
	return e.Key == ErrKeyTransientFailure
}

func (e *AccountError) ExitCode() int {
	if code, exists := ErrorCodeToExitCode[e.Key]; exists {
		return code
	}
	return 1
}

func NewAccountError(key AccountErrorType, err error, customMessage ...string) *AccountError {
	message, exists := defaultErrorMessages[key]
	if !exists {
		message = "An unknown error occurred"
	}
	if len(customMessage) > 0 {
		message = customMessage[0]
	}
	return &AccountError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

func IsAccountError(err error) bool {
	return AsAccountError(err) != nil
}

func AsAccountError(err error) *AccountError {
	var accountErr *AccountError
	if errors.As(err, &accountErr) {
		return accountErr
	}
	return nil
}

// IsAccountErrorType reports whether err is, or wraps, an AccountError with the given key.
func IsAccountErrorType(err error, key AccountErrorType) bool {
	accountErr := AsAccountError(err)
	return accountErr != nil && accountErr.IsErrorType(key)
}
