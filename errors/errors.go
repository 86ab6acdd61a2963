package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the link pipeline the error occurred.
type Phase string

const (
	PhaseLoad    Phase = "load"    // reading a module from storage
	PhaseParse   Phase = "parse"   // decoding text or binary IR
	PhaseVerify  Phase = "verify"  // structural verification
	PhaseLink    Phase = "link"    // folding a module into the composite
	PhaseImport  Phase = "import"  // selective function importing
	PhasePromote Phase = "promote" // symbol promotion and renaming
	PhaseWrite   Phase = "write"   // serializing the composite
)

// Kind categorizes the error.
type Kind string

const (
	KindFileMissing      Kind = "file_missing"
	KindInvalidData      Kind = "invalid_data"
	KindBrokenModule     Kind = "broken_module"
	KindDuplicateSymbol  Kind = "duplicate_symbol"
	KindTypeConflict     Kind = "type_conflict"
	KindMalformedRequest Kind = "malformed_request"
	KindNotFound         Kind = "not_found"
	KindConsumedModule   Kind = "consumed_module"
	KindIO               Kind = "io"
)

// Error is the structured error type used throughout modlink.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string // identifier of the module involved, if any
	Symbol string // name of the symbol involved, if any
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}
	if e.Symbol != "" {
		b.WriteString(" at @")
		b.WriteString(e.Symbol)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two errors match when their
// Phase and Kind agree, so sentinel values like
// &Error{Phase: PhaseLink, Kind: KindDuplicateSymbol} can be used with
// errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the pipeline's error taxonomy.

// Load creates a module loading error.
func Load(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindFileMissing,
		Module: module,
		Detail: "cannot load module",
		Cause:  cause,
	}
}

// Parse creates a text or binary decoding error.
func Parse(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Module: module,
		Cause:  cause,
	}
}

// Verify creates a structural verification error.
func Verify(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindBrokenModule,
		Module: module,
		Detail: "input module is broken",
		Cause:  cause,
	}
}

// DuplicateSymbol creates a merge conflict error for two strong definitions
// of the same name.
func DuplicateSymbol(module, symbol string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindDuplicateSymbol,
		Module: module,
		Symbol: symbol,
		Detail: "symbol multiply defined",
	}
}

// TypeConflict creates a merge conflict error for incompatible symbol kinds
// or signatures.
func TypeConflict(module, symbol, detail string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindTypeConflict,
		Module: module,
		Symbol: symbol,
		Detail: detail,
	}
}

// MalformedRequest creates an error for a bad "name:file" import request.
func MalformedRequest(request string) *Error {
	return &Error{
		Phase:  PhaseImport,
		Kind:   KindMalformedRequest,
		Detail: fmt.Sprintf("import request %q: missing ':' separator", request),
	}
}

// NotFound creates a not-found error.
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Consumed creates an error for touching a module already transferred into
// the merge primitive.
func Consumed(module string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindConsumedModule,
		Module: module,
		Detail: "module already consumed by a merge",
	}
}

// Write creates a serialization error.
func Write(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with taxonomy context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
