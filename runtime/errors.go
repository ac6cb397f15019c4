package runtime

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind (or ProgramError.Code) rather than
// matching error strings.
type Kind string

const (
	KindParse     Kind = "Parse"
	KindSignature Kind = "Signature"
	KindRejected  Kind = "Rejected"
	KindAccount   Kind = "Account"
	KindProgram   Kind = "Program"
	KindNotFound  Kind = "NotFound"
	KindInternal  Kind = "Internal"
)

// Error is the runtime's structured error type.
//
// Code is a stable identifier (e.g. LEDGER-SIG-001) naming the violated
// invariant. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func wrapError(kind Kind, code, msg string, cause error) error {
	if cause == nil {
		return newError(kind, code, msg)
	}
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ProgramError is a program-defined failure with a numeric custom code,
// as surfaced to clients in transaction records. Custom codes start at
// 6000 by convention; codes below that are reserved for the runtime's
// builtin instruction errors.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return fmt.Sprintf("custom program error %d (%s)", e.Code, e.Name)
	}
	return fmt.Sprintf("custom program error %d (%s): %s", e.Code, e.Name, e.Msg)
}

// AsProgramError returns the *ProgramError wrapped by err, or nil.
func AsProgramError(err error) *ProgramError {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// Builtin instruction errors shared by native programs.
var (
	ErrAccountNotFound      = &ProgramError{Code: 1, Name: "AccountNotFound", Msg: "account does not exist on the ledger"}
	ErrAccountAlreadyInUse  = &ProgramError{Code: 2, Name: "AccountAlreadyInUse", Msg: "account address already in use"}
	ErrMissingSignature     = &ProgramError{Code: 3, Name: "MissingRequiredSignature", Msg: "required signer did not sign"}
	ErrNotEnoughKeys        = &ProgramError{Code: 4, Name: "NotEnoughAccountKeys", Msg: "instruction references more accounts than provided"}
	ErrInvalidAccountOwner  = &ProgramError{Code: 5, Name: "InvalidAccountOwner", Msg: "account is not owned by the executing program"}
	ErrInvalidAccountData   = &ProgramError{Code: 6, Name: "InvalidAccountData", Msg: "account data failed to deserialize"}
	ErrInvalidInstruction   = &ProgramError{Code: 7, Name: "InvalidInstructionData", Msg: "instruction data failed to deserialize"}
	ErrInsufficientFunds    = &ProgramError{Code: 8, Name: "InsufficientFunds", Msg: "insufficient lamports for the requested operation"}
	ErrInvalidSeeds         = &ProgramError{Code: 9, Name: "InvalidSeeds", Msg: "address does not derive from the supplied seeds"}
	ErrAccountNotRentExempt = &ProgramError{Code: 10, Name: "AccountNotRentExempt", Msg: "created account would not be rent exempt"}
	ErrIncorrectProgramID   = &ProgramError{Code: 11, Name: "IncorrectProgramId", Msg: "account does not reference the expected program"}
)
