package walletcore

import "fmt"

// ErrorCode is a domain error code used by the accounting engines.
type ErrorCode string

const (
	// ErrorInvalidAmount indicates a supplied amount failed the positivity precondition.
	ErrorInvalidAmount ErrorCode = "INVALID_AMOUNT"
	// ErrorInvalidInput indicates a caller-contract violation in request shape.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorAccountNotFound indicates a descriptor references a wallet absent from the batch wallet set.
	ErrorAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"
	// ErrorPersistenceFailure indicates the store rejected the batch; nothing was applied.
	ErrorPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	// ErrorRegulatorFailure indicates balance application failed for one wallet mid-batch.
	ErrorRegulatorFailure ErrorCode = "REGULATOR_FAILURE"
	// ErrorRecordMismatch indicates a resolved wallet did not match its batch key.
	ErrorRecordMismatch ErrorCode = "RECORD_MISMATCH"
)

// DomainError represents a structured accounting domain error.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, msg, e.Field)
}

// Unwrap exposes the collaborator cause, if any.
func (e DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a domain error with code, field, and message.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}

// WrapDomainError creates a domain error that carries a collaborator cause.
func WrapDomainError(code ErrorCode, field, message string, err error) error {
	return DomainError{Code: code, Field: field, Message: message, Err: err}
}
