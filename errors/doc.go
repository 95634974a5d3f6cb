// Package errors provides structured error types for the evm-caller module.
//
// Errors are categorized by Phase (where in the invocation pipeline the error
// occurred) and Kind (error category). The Error type includes rich context:
// the failing parameter path, the ABI type involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCoerce, errors.KindInvalidInteger).
//		Path("amounts", "[2]").
//		ABIType("uint128").
//		Detail("cannot parse %q", raw).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidAddress(raw)
//	err := errors.ArrayLengthMismatch(2, 3, "uint256[3]")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
