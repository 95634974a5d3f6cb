package contract

import (
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/wippyai/evm-caller/errors"
	"github.com/wippyai/evm-caller/invoke"
)

// MethodKind filters a contract's methods by state mutability.
type MethodKind int

const (
	// KindRead selects view and pure methods.
	KindRead MethodKind = iota
	// KindWrite selects state-mutating methods.
	KindWrite
	// KindAll selects every method.
	KindAll
)

func (k MethodKind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseMethodKind maps the CLI spelling to a MethodKind.
func ParseMethodKind(s string) (MethodKind, error) {
	switch s {
	case "read":
		return KindRead, nil
	case "write":
		return KindWrite, nil
	case "all", "":
		return KindAll, nil
	default:
		return KindAll, errors.InvalidInput(errors.PhaseABI, "method kind must be read, write, or all")
	}
}

// Contract pairs a parsed ABI with the deployed address it lives at.
// Immutable once loaded; invocations only read it.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Method looks up a method by name.
func (c *Contract) Method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, errors.NotFound(errors.PhaseABI, "method", name)
	}
	return m, nil
}

// Methods returns the contract's methods of the given kind, sorted by name
// so listings are stable.
func (c *Contract) Methods(kind MethodKind) []abi.Method {
	var out []abi.Method
	for _, m := range c.ABI.Methods {
		switch kind {
		case KindRead:
			if !invoke.IsRead(m) {
				continue
			}
		case KindWrite:
			if invoke.IsRead(m) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
