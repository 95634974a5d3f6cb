// Package chain provides the Ethereum-facing side of the tool: an ethclient
// adapter implementing the transport capability, a private-key signer that
// builds dynamic-fee transactions, and chain metadata lookup.
package chain
