// Package config loads the tool's YAML configuration: RPC endpoint, chain
// ID, optional signing key, ABI and registry locations, and the receipt wait
// budget. Missing files fall back to local-devnet defaults.
package config
