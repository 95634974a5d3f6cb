package contract

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/wippyai/evm-caller/errors"
)

// Entry binds a contract name to its deployed address.
type Entry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Registry persists name→address bindings as a JSON file, the session's
// address-registry collaborator. Zero value is an empty registry.
type Registry struct {
	Path    string
	entries []Entry
}

// Load reads the registry file. A missing file is an empty registry, not an
// error, so first runs work without setup.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		r.entries = nil
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "reading contract registry")
	}
	if err := json.Unmarshal(data, &r.entries); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parsing contract registry")
	}
	for _, e := range r.entries {
		if e.Address != "" && !common.IsHexAddress(e.Address) {
			return errors.InvalidAddress(e.Address).WithPath(e.Name)
		}
	}
	return nil
}

// Save writes the registry back to disk.
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "encoding contract registry")
	}
	if err := os.WriteFile(r.Path, data, 0o644); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "writing contract registry")
	}
	return nil
}

// Set binds a name to an address, replacing any previous binding.
func (r *Registry) Set(name, address string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseConfig, "contract name cannot be empty")
	}
	if !common.IsHexAddress(address) {
		return errors.InvalidAddress(address)
	}
	for i := range r.entries {
		if r.entries[i].Name == name {
			r.entries[i].Address = address
			return nil
		}
	}
	r.entries = append(r.entries, Entry{Name: name, Address: address})
	return nil
}

// Address resolves a contract name to its deployed address.
func (r *Registry) Address(name string) (common.Address, error) {
	for _, e := range r.entries {
		if e.Name == name {
			if !common.IsHexAddress(e.Address) {
				return common.Address{}, errors.InvalidAddress(e.Address).WithPath(name)
			}
			return common.HexToAddress(e.Address), nil
		}
	}
	return common.Address{}, errors.NotFound(errors.PhaseConfig, "contract address for", name)
}

// Names lists the registered contract names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Resolve assembles the Contract entity for one invocation session: ABI from
// the loaded set, address from the registry.
func Resolve(name string, abis map[string]abi.ABI, reg *Registry) (*Contract, error) {
	parsed, ok := abis[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseABI, "ABI for contract", name)
	}
	addr, err := reg.Address(name)
	if err != nil {
		return nil, err
	}
	return &Contract{Name: name, Address: addr, ABI: parsed}, nil
}
