package chain

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/wippyai/evm-caller/errors"
)

// Currency describes a chain's native token.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Info is chain metadata in the chainlist chains.json shape.
type Info struct {
	Name           string   `json:"name"`
	ChainID        uint64   `json:"chainId"`
	ShortName      string   `json:"shortName"`
	NativeCurrency Currency `json:"nativeCurrency"`
	RPC            []string `json:"rpc,omitempty"`
	Explorer       string   `json:"explorer,omitempty"`
}

var eth = Currency{Name: "Ether", Symbol: "ETH", Decimals: 18}

// builtinChains covers the networks the tool is commonly pointed at. A
// chains.json file extends or overrides this set.
var builtinChains = map[uint64]Info{
	1:        {Name: "Ethereum Mainnet", ChainID: 1, ShortName: "eth", NativeCurrency: eth, Explorer: "https://etherscan.io"},
	10:       {Name: "OP Mainnet", ChainID: 10, ShortName: "oeth", NativeCurrency: eth, Explorer: "https://optimistic.etherscan.io"},
	56:       {Name: "BNB Smart Chain", ChainID: 56, ShortName: "bnb", NativeCurrency: Currency{Name: "BNB", Symbol: "BNB", Decimals: 18}, Explorer: "https://bscscan.com"},
	137:      {Name: "Polygon Mainnet", ChainID: 137, ShortName: "matic", NativeCurrency: Currency{Name: "POL", Symbol: "POL", Decimals: 18}, Explorer: "https://polygonscan.com"},
	8453:     {Name: "Base", ChainID: 8453, ShortName: "base", NativeCurrency: eth, Explorer: "https://basescan.org"},
	42161:    {Name: "Arbitrum One", ChainID: 42161, ShortName: "arb1", NativeCurrency: eth, Explorer: "https://arbiscan.io"},
	11155111: {Name: "Sepolia", ChainID: 11155111, ShortName: "sep", NativeCurrency: eth, Explorer: "https://sepolia.etherscan.io"},
	31337:    {Name: "Local Devnet", ChainID: 31337, ShortName: "dev", NativeCurrency: eth},
}

// Describe returns metadata for a chain ID. Unknown chains get a synthetic
// entry rather than an error so the tool still works on private networks.
func Describe(chainID uint64) Info {
	if info, ok := builtinChains[chainID]; ok {
		return info
	}
	return Info{
		Name:           "Chain " + strconv.FormatUint(chainID, 10),
		ChainID:        chainID,
		NativeCurrency: eth,
	}
}

// ResolveInfo returns the metadata for a chain ID, consulting a chains.json
// overlay file when one is configured.
func ResolveInfo(chainID uint64, path string) (Info, error) {
	if path == "" {
		return Describe(chainID), nil
	}
	chains, err := LoadInfoFile(path)
	if err != nil {
		return Info{}, err
	}
	if info, ok := chains[chainID]; ok {
		return info, nil
	}
	return Describe(chainID), nil
}

// LoadInfoFile reads a chains.json array and returns its entries keyed by
// chain ID, merged over the builtin set.
func LoadInfoFile(path string) (map[uint64]Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "reading chain info "+path)
	}
	var entries []Info
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parsing chain info")
	}

	merged := make(map[uint64]Info, len(builtinChains)+len(entries))
	for id, info := range builtinChains {
		merged[id] = info
	}
	for _, info := range entries {
		merged[info.ChainID] = info
	}
	return merged, nil
}
