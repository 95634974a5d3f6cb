// Package contract loads ABI definitions and tracks deployed addresses.
//
// ABIs come from a directory of *.abi / *.json files, either raw ABI arrays
// or Hardhat/Foundry build artifacts. Addresses live in a JSON registry file
// edited through Set and persisted with Save. Resolve pairs the two into a
// Contract ready for invocation.
package contract
