package main

import (
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/wippyai/evm-caller/invoke"
)

// printOutcome renders one invocation result for the terminal.
func printOutcome(w io.Writer, method abi.Method, outcome invoke.Outcome) error {
	switch outcome.Status {
	case invoke.StatusReadResult:
		if len(outcome.Values) == 0 {
			fmt.Fprintln(w, "(no return values)")
			return nil
		}
		for i, v := range outcome.Values {
			label := ""
			if i < len(method.Outputs) && method.Outputs[i].Name != "" {
				label = method.Outputs[i].Name + " = "
			}
			fmt.Fprintf(w, "%s%s\n", label, formatValue(v))
		}
		return nil

	case invoke.StatusWriteSubmitted:
		fmt.Fprintf(w, "Submitted: %s\n", outcome.TxHash.Hex())
		return nil

	case invoke.StatusWriteConfirmed:
		fmt.Fprintf(w, "Confirmed: %s\n", outcome.TxHash.Hex())
		if outcome.Receipt != nil {
			fmt.Fprintf(w, "  block:    %s\n", outcome.Receipt.BlockNumber)
			fmt.Fprintf(w, "  gas used: %d\n", outcome.Receipt.GasUsed)
		}
		return nil

	case invoke.StatusWriteTimedOut:
		fmt.Fprintf(w, "Timed out waiting for receipt of %s.\n", outcome.TxHash.Hex())
		fmt.Fprintln(w, "The transaction may still confirm later.")
		return outcome.Err

	default:
		return outcome.Err
	}
}

// formatValue renders a decoded ABI value the way an operator expects to
// read it: addresses and byte strings in hex, composites recursively.
func formatValue(v any) string {
	switch t := v.(type) {
	case *big.Int:
		return t.String()
	case common.Address:
		return t.Hex()
	case common.Hash:
		return t.Hex()
	case []byte:
		return hexutil.Encode(t)
	case bool:
		return fmt.Sprintf("%t", t)
	case string:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		// Fixed byte arrays render as hex like dynamic bytes.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
		return formatSequence(rv)
	case reflect.Slice:
		return formatSequence(rv)
	case reflect.Struct:
		parts := make([]string, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			parts = append(parts, formatValue(rv.Field(i).Interface()))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatSequence(rv reflect.Value) string {
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts = append(parts, formatValue(rv.Index(i).Interface()))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
