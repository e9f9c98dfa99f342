// Package domainerrors carries stable failure codes from the lifecycle
// engine to its callers. Transport layers map codes to status codes; nothing
// in here knows about HTTP.
package domainerrors

import "errors"

type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	CodeInsufficientFunds Code = "insufficient_funds"      // issuer wallet cannot fund a commitment
	CodeSigningFailed     Code = "signing_failed"          // signer rejected or failed the certificate
	CodeChainSubmission   Code = "chain_submission_failed" // ledger returned no transaction id
	CodeStoreCorrupted    Code = "store_corrupted"         // persisted secrets could not be parsed
	CodeStoreUnavailable  Code = "store_unavailable"       // persisted secrets could not be read or written
)

// Error is a coded failure. Message is safe to show to clients only for the
// codes the transport layer chooses to expose.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c})
// works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg to err. A code already present in err wins over code.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
