package coerce

import (
	"encoding/hex"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/wippyai/evm-caller/errors"
)

// Coerce converts one raw text token into a value of the given ABI type,
// recursing into arrays and tuples. The result is packable by
// abi.Arguments.Pack. It is a pure function of (raw, typ); all failures are
// structured *errors.Error values, never silent defaults.
func Coerce(raw string, typ abi.Type) (any, error) {
	switch typ.T {
	case abi.AddressTy:
		return coerceAddress(raw)
	case abi.UintTy:
		return coerceInteger(raw, typ, false)
	case abi.IntTy:
		return coerceInteger(raw, typ, true)
	case abi.BoolTy:
		return coerceBool(raw)
	case abi.StringTy:
		// Raw text passes through unchanged.
		return raw, nil
	case abi.BytesTy:
		return coerceBytes(raw)
	case abi.FixedBytesTy:
		return coerceFixedBytes(raw, typ)
	case abi.SliceTy:
		return coerceList(raw, typ, -1)
	case abi.ArrayTy:
		return coerceList(raw, typ, typ.Size)
	case abi.TupleTy:
		return coerceTuple(raw, typ)
	default:
		return nil, errors.Unsupported(errors.PhaseCoerce, typ.String())
	}
}

func coerceAddress(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return nil, errors.InvalidAddress(raw)
	}
	return common.HexToAddress(s), nil
}

// coerceInteger parses base-10 or 0x-prefixed base-16 text and checks it
// against the declared bit width. Widths of 64 bits or less map to sized Go
// integers because that is what the ABI packer expects for them; wider types
// stay *big.Int.
func coerceInteger(raw string, typ abi.Type, signed bool) (any, error) {
	s := strings.TrimSpace(raw)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	// Exactly one sign, before the prefix. SetString accepts its own leading
	// sign, so a stray one here would make "--5" or "0x-5" parse.
	if s == "" || strings.ContainsAny(s, "+-") {
		return nil, errors.InvalidInteger(raw, typ.String())
	}

	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.InvalidInteger(raw, typ.String())
	}
	if neg {
		v.Neg(v)
	}

	if signed {
		// Representable range is [-2^(n-1), 2^(n-1)-1].
		bound := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		max := new(big.Int).Sub(bound, big.NewInt(1))
		min := new(big.Int).Neg(bound)
		if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
			return nil, errors.OutOfRange(v.String(), typ.String())
		}
		switch typ.Size {
		case 8:
			return int8(v.Int64()), nil
		case 16:
			return int16(v.Int64()), nil
		case 32:
			return int32(v.Int64()), nil
		case 64:
			return v.Int64(), nil
		default:
			return v, nil
		}
	}

	if v.Sign() < 0 || v.BitLen() > typ.Size {
		return nil, errors.OutOfRange(v.String(), typ.String())
	}
	switch typ.Size {
	case 8:
		return uint8(v.Uint64()), nil
	case 16:
		return uint16(v.Uint64()), nil
	case 32:
		return uint32(v.Uint64()), nil
	case 64:
		return v.Uint64(), nil
	default:
		return v, nil
	}
}

func coerceBool(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return nil, errors.InvalidBool(raw)
	}
}

func decodeHex(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.InvalidHex(raw, err)
	}
	return b, nil
}

func coerceBytes(raw string) (any, error) {
	return decodeHex(raw)
}

func coerceFixedBytes(raw string, typ abi.Type) (any, error) {
	b, err := decodeHex(raw)
	if err != nil {
		return nil, err
	}
	if len(b) != typ.Size {
		return nil, errors.InvalidBytesLength(len(b), typ.Size, typ.String())
	}
	// bytesN packs as a [N]byte array, which only exists via reflection.
	arr := reflect.New(typ.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

// coerceList handles both slices (fixedLen < 0) and fixed-length arrays.
// Input is a comma-separated token list, optionally wrapped in brackets,
// with whitespace trimmed around each element.
func coerceList(raw string, typ abi.Type, fixedLen int) (any, error) {
	parts := splitElements(raw)

	if fixedLen >= 0 && len(parts) != fixedLen {
		return nil, errors.ArrayLengthMismatch(len(parts), fixedLen, typ.String())
	}

	var list reflect.Value
	if fixedLen >= 0 {
		list = reflect.New(typ.GetType()).Elem()
	} else {
		list = reflect.MakeSlice(typ.GetType(), len(parts), len(parts))
	}

	for i, part := range parts {
		elem, err := Coerce(part, *typ.Elem)
		if err != nil {
			return nil, pathErr(err, indexPath(i))
		}
		list.Index(i).Set(reflect.ValueOf(elem))
	}
	return list.Interface(), nil
}

// coerceTuple parses a single flat token of the form "(a, b, c)". Component
// count must match the declared tuple exactly. Interactive flows prompt per
// component instead (see Collect); this path exists for tuples nested inside
// array elements and for non-interactive argument lists.
func coerceTuple(raw string, typ abi.Type) (any, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := splitTopLevel(s)
	if len(s) == 0 {
		parts = nil
	}

	if len(parts) != len(typ.TupleElems) {
		return nil, errors.New(errors.PhaseCoerce, errors.KindArrayLengthMismatch).
			ABIType(typ.String()).
			Detail("%d components provided, tuple has %d", len(parts), len(typ.TupleElems)).
			Build()
	}

	// Tuples pack as a struct mirroring the component list.
	st := reflect.New(typ.GetType()).Elem()
	for i, elemType := range typ.TupleElems {
		v, err := Coerce(parts[i], *elemType)
		if err != nil {
			return nil, pathErr(err, typ.TupleRawNames[i])
		}
		st.Field(i).Set(reflect.ValueOf(v))
	}
	return st.Interface(), nil
}

// splitElements splits an array token into element tokens. Surrounding
// brackets are optional. An empty (or bracket-only) input is zero elements.
func splitElements(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return splitTopLevel(s)
}

// splitTopLevel splits on commas that are not nested inside brackets or
// parentheses, so tuple and array elements keep their inner commas.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func indexPath(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func pathErr(err error, prefix string) error {
	if se, ok := err.(*errors.Error); ok {
		return se.WithPath(prefix)
	}
	return err
}
