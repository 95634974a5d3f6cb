// Package invoke executes contract method calls against an EVM chain.
//
// Router picks the execution path from the method's state mutability:
// view/pure methods become stateless eth_call reads with decoded return
// values, everything else becomes a signed transaction. Confirmer owns the
// write path's submit → poll → confirm/timeout lifecycle.
//
// All chain access goes through the ChainClient and Signer capabilities, so
// a single invocation holds no global state and tests run against in-memory
// doubles. The Confirmer's clock is injected for the same reason.
package invoke
