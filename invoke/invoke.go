package invoke

import (
	"context"
	stderrors "errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/wippyai/evm-caller/errors"
)

// ErrPending is returned by ChainClient.Receipt while the transaction has
// not been mined yet.
var ErrPending = stderrors.New("transaction pending")

// TxRequest describes a state-changing call before it becomes a transaction.
// Nonce, gas, and fees are the signer's concern.
type TxRequest struct {
	To   common.Address
	Data []byte
}

// ChainClient is the transport capability. Implementations live in the chain
// package; tests substitute deterministic doubles.
type ChainClient interface {
	// Call executes a read-only call against the latest state.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// Submit broadcasts a signed transaction.
	Submit(ctx context.Context, tx *types.Transaction) error
	// Receipt fetches the receipt for a transaction, or ErrPending while
	// the transaction is unmined.
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer is the signing capability: it turns a TxRequest into a signed
// transaction ready for broadcast.
type Signer interface {
	Sign(ctx context.Context, req TxRequest) (*types.Transaction, error)
}

// Status tags the possible invocation outcomes.
type Status int

const (
	StatusReadResult Status = iota
	StatusWriteSubmitted
	StatusWriteConfirmed
	StatusWriteTimedOut
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReadResult:
		return "read result"
	case StatusWriteSubmitted:
		return "write submitted"
	case StatusWriteConfirmed:
		return "write confirmed"
	case StatusWriteTimedOut:
		return "write timed out"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one invocation. Exactly the fields implied
// by Status are set: Values for a read, TxHash from submission onward,
// Receipt once confirmed, Err on failure.
type Outcome struct {
	Status  Status
	Values  []any
	TxHash  common.Hash
	Receipt *types.Receipt
	Err     error
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// IsRead reports whether the method can be invoked without a transaction.
func IsRead(method abi.Method) bool {
	return method.StateMutability == "view" || method.StateMutability == "pure" || method.Constant
}

// Router classifies a method as read or write and dispatches accordingly.
// A nil Confirmer stops the write path at submission.
type Router struct {
	Client    ChainClient
	Signer    Signer
	Confirmer *Confirmer
	Log       *zap.Logger
}

func (r *Router) logger() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}

// Invoke executes one contract method with an already-collected argument
// vector. The vector's shape must match method.Inputs; the packer enforces
// this and any mismatch surfaces as an encode failure.
func (r *Router) Invoke(ctx context.Context, to common.Address, method abi.Method, args []any) Outcome {
	calldata, err := method.Inputs.Pack(args...)
	if err != nil {
		return failed(errors.Wrap(errors.PhaseEncode, errors.KindInvalidInput, err,
			"packing arguments for "+method.Name))
	}
	calldata = append(method.ID, calldata...)

	if IsRead(method) {
		return r.read(ctx, to, method, calldata)
	}
	return r.write(ctx, to, method, calldata)
}

func (r *Router) read(ctx context.Context, to common.Address, method abi.Method, calldata []byte) Outcome {
	r.logger().Debug("read call",
		zap.String("contract", to.Hex()),
		zap.String("method", method.Name))

	ret, err := r.Client.Call(ctx, to, calldata)
	if err != nil {
		return failed(errors.Transport(errors.PhaseCall, err, "eth_call failed"))
	}

	values, err := method.Outputs.Unpack(ret)
	if err != nil {
		return failed(errors.Wrap(errors.PhaseEncode, errors.KindInvalidInput, err,
			"decoding return data of "+method.Name))
	}
	return Outcome{Status: StatusReadResult, Values: values}
}

// write submits a signed transaction and hands off to the Confirmer.
// Submission-time errors (insufficient funds, nonce conflicts, transport)
// are terminal here: they are reported, never retried automatically.
func (r *Router) write(ctx context.Context, to common.Address, method abi.Method, calldata []byte) Outcome {
	tx, err := r.Signer.Sign(ctx, TxRequest{To: to, Data: calldata})
	if err != nil {
		return failed(errors.Wrap(errors.PhaseSign, errors.KindInvalidInput, err,
			"building transaction for "+method.Name))
	}

	if err := r.Client.Submit(ctx, tx); err != nil {
		return failed(errors.Transport(errors.PhaseSubmit, err, "broadcast failed"))
	}

	r.logger().Info("transaction submitted",
		zap.String("contract", to.Hex()),
		zap.String("method", method.Name),
		zap.String("tx", tx.Hash().Hex()))

	if r.Confirmer == nil {
		return Outcome{Status: StatusWriteSubmitted, TxHash: tx.Hash()}
	}
	outcome := r.Confirmer.Confirm(ctx, tx.Hash())
	outcome.TxHash = tx.Hash()
	return outcome
}
