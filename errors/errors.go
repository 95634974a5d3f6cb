package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the invocation pipeline the error occurred
type Phase string

const (
	PhaseConfig  Phase = "config"  // configuration loading/validation
	PhaseABI     Phase = "abi"     // ABI file loading and parsing
	PhaseCoerce  Phase = "coerce"  // text to typed value conversion
	PhaseCollect Phase = "collect" // parameter collection
	PhaseEncode  Phase = "encode"  // calldata packing/unpacking
	PhaseCall    Phase = "call"    // read-only contract call
	PhaseSign    Phase = "sign"    // transaction building and signing
	PhaseSubmit  Phase = "submit"  // raw transaction broadcast
	PhaseConfirm Phase = "confirm" // receipt polling
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidAddress      Kind = "invalid_address"
	KindInvalidInteger      Kind = "invalid_integer"
	KindOutOfRange          Kind = "out_of_range"
	KindInvalidBool         Kind = "invalid_bool"
	KindInvalidHex          Kind = "invalid_hex"
	KindInvalidBytesLength  Kind = "invalid_bytes_length"
	KindArrayLengthMismatch Kind = "array_length_mismatch"
	KindUnsupportedType     Kind = "unsupported_type"
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindTransport           Kind = "transport"
	KindReverted            Kind = "reverted"
	KindTimeout             Kind = "timeout"
	KindCancelled           Kind = "cancelled"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	ABIType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.ABIType != "" {
		b.WriteString(": ABI type ")
		b.WriteString(e.ABIType)
	}

	if e.Detail != "" {
		if e.ABIType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// WithPath returns a copy of the error with path elements prepended.
// Used while unwinding recursive coercion so the failing parameter keeps
// its full position, e.g. recipients[2].amount.
func (e *Error) WithPath(prefix ...string) *Error {
	clone := *e
	clone.Path = append(append([]string{}, prefix...), e.Path...)
	return &clone
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the parameter path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// ABIType sets the ABI type name
func (b *Builder) ABIType(t string) *Builder {
	b.err.ABIType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidAddress creates an invalid address error
func InvalidAddress(raw string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindInvalidAddress,
		ABIType: "address",
		Detail:  fmt.Sprintf("expected 40 hex digits with optional 0x prefix, got %q", raw),
		Value:   raw,
	}
}

// InvalidInteger creates an unparseable integer error
func InvalidInteger(raw, abiType string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindInvalidInteger,
		ABIType: abiType,
		Detail:  fmt.Sprintf("%q is not a base-10 or 0x-prefixed integer", raw),
		Value:   raw,
	}
}

// OutOfRange creates an integer range error
func OutOfRange(value any, abiType string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindOutOfRange,
		ABIType: abiType,
		Detail:  fmt.Sprintf("value %v does not fit in %s", value, abiType),
		Value:   value,
	}
}

// InvalidBool creates an invalid boolean error
func InvalidBool(raw string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindInvalidBool,
		ABIType: "bool",
		Detail:  fmt.Sprintf("expected true/false or 1/0, got %q", raw),
		Value:   raw,
	}
}

// InvalidHex creates a hex decoding error
func InvalidHex(raw string, cause error) *Error {
	return &Error{
		Phase:  PhaseCoerce,
		Kind:   KindInvalidHex,
		Detail: fmt.Sprintf("invalid hex string %q", raw),
		Value:  raw,
		Cause:  cause,
	}
}

// InvalidBytesLength creates a fixed-bytes length error
func InvalidBytesLength(got, want int, abiType string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindInvalidBytesLength,
		ABIType: abiType,
		Detail:  fmt.Sprintf("decoded %d bytes, need exactly %d", got, want),
		Value:   got,
	}
}

// ArrayLengthMismatch creates a fixed-array arity error
func ArrayLengthMismatch(got, want int, abiType string) *Error {
	return &Error{
		Phase:   PhaseCoerce,
		Kind:    KindArrayLengthMismatch,
		ABIType: abiType,
		Detail:  fmt.Sprintf("%d elements provided, declared length is %d", got, want),
		Value:   got,
	}
}

// Unsupported creates an unsupported ABI type error
func Unsupported(phase Phase, abiType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUnsupportedType,
		ABIType: abiType,
		Detail:  "no coercion rule for this type",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Transport wraps a transport failure
func Transport(phase Phase, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTransport,
		Detail: detail,
		Cause:  cause,
	}
}

// Reverted creates an execution revert error. Reason may be empty when the
// revert payload could not be decoded.
func Reverted(txHash, reason string) *Error {
	detail := fmt.Sprintf("transaction %s reverted", txHash)
	if reason != "" {
		detail += ": " + reason
	}
	return &Error{
		Phase:  PhaseConfirm,
		Kind:   KindReverted,
		Detail: detail,
		Value:  txHash,
	}
}

// Timeout creates a confirmation deadline error
func Timeout(txHash string, waited string) *Error {
	return &Error{
		Phase:  PhaseConfirm,
		Kind:   KindTimeout,
		Detail: fmt.Sprintf("no receipt for %s within %s; the transaction may still confirm later", txHash, waited),
		Value:  txHash,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
