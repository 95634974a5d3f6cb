package contract

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/wippyai/evm-caller/errors"
)

// artifact is the shape Hardhat and Foundry build outputs share: the ABI
// sits under an "abi" key next to bytecode and metadata.
type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// ParseABI parses either a raw ABI JSON array or a build artifact object
// wrapping one.
func ParseABI(data []byte) (abi.ABI, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var art artifact
		if err := json.Unmarshal(data, &art); err != nil {
			return abi.ABI{}, errors.Wrap(errors.PhaseABI, errors.KindInvalidInput, err, "parsing artifact JSON")
		}
		if len(art.ABI) == 0 {
			return abi.ABI{}, errors.InvalidInput(errors.PhaseABI, `artifact object has no "abi" key`)
		}
		data = art.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, errors.Wrap(errors.PhaseABI, errors.KindInvalidInput, err, "parsing ABI JSON")
	}
	return parsed, nil
}

// LoadFile parses one ABI file.
func LoadFile(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, errors.Wrap(errors.PhaseABI, errors.KindNotFound, err, "reading "+path)
	}
	parsed, perr := ParseABI(data)
	if perr != nil {
		if se, ok := perr.(*errors.Error); ok {
			return abi.ABI{}, se.WithPath(filepath.Base(path))
		}
		return abi.ABI{}, perr
	}
	return parsed, nil
}

// LoadDir loads every *.abi and *.json file in dir, keyed by filename
// without extension. A malformed file fails the whole load so a typo is
// caught at startup rather than at invocation time.
func LoadDir(dir string) (map[string]abi.ABI, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseABI, errors.KindNotFound, err, "reading ABI directory "+dir)
	}

	abis := make(map[string]abi.ABI)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".abi" && ext != ".json" {
			continue
		}
		parsed, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		abis[name] = parsed
	}
	return abis, nil
}
