// Package evmcaller invokes smart-contract methods from their ABI alone.
//
// The library turns an ABI JSON file plus operator-supplied text into typed
// contract invocations: reads run as eth_call and decode their return data,
// writes are signed, broadcast, and confirmed by polling for a receipt.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	evmcaller/           Root package wiring a configured Session
//	├── coerce/          Text to ABI-typed value conversion and collection
//	├── invoke/          Read/write routing and receipt confirmation
//	├── contract/        ABI loading and the name→address registry
//	├── chain/           ethclient transport, key signer, chain metadata
//	├── config/          YAML configuration
//	├── errors/          Structured error types for debugging
//	└── cmd/evm-caller/  CLI with single-shot and interactive modes
//
// # Quick Start
//
// Open a session and invoke a method:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := evmcaller.NewSession(ctx, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	outcome, err := session.Invoke(ctx, "token", "balanceOf", []string{owner})
//	fmt.Println(outcome.Values[0]) // *big.Int balance
//
// # Input Conventions
//
// Every parameter is entered as one line of text: addresses as 40 hex digits
// with optional 0x prefix, integers in decimal or 0x hex, arrays as
// comma-separated elements with optional brackets, tuples per-field when
// collected interactively or as "(a, b, c)" inline.
//
// # Write Lifecycle
//
// A write moves through Submitted → Confirmed, Reverted, or TimedOut. A
// timeout only means the wait budget ran out; the transaction may still
// confirm later and the hash is always reported.
package evmcaller
