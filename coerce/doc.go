// Package coerce converts operator-supplied text into ABI-typed argument
// values.
//
// Coerce handles one token against one ABI type, recursing into arrays and
// tuples; Collect walks a whole method signature, requesting one token per
// scalar parameter and one per tuple component from an InputSource.
//
// The central contract: the shape of the produced argument vector always
// matches the method's parameter types exactly, or a structured error names
// the offending parameter. Values are never truncated, padded, or defaulted.
//
// Conventions for text input:
//
//	address   40 hex digits, 0x optional, case ignored
//	uintN/intN  base-10, or base-16 with 0x prefix
//	bool      true/false/1/0, case-insensitive
//	bytes     hex, 0x optional; bytesN requires exactly N bytes
//	string    passed through verbatim
//	T[] T[n]  comma-separated elements, brackets optional
//	tuple     (a, b, c) as one token, or per-field prompts via Collect
package coerce
