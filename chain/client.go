package chain

import (
	"context"
	stderrors "errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/wippyai/evm-caller/errors"
	"github.com/wippyai/evm-caller/invoke"
)

// Backend is the subset of ethclient.Client this package touches. Tests
// substitute deterministic doubles.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client adapts a JSON-RPC backend to the invoke.ChainClient capability.
type Client struct {
	Backend Backend
	Log     *zap.Logger
}

var _ invoke.ChainClient = (*Client)(nil)
var _ invoke.RevertReasoner = (*Client)(nil)

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Transport(errors.PhaseConfig, err, "dialing "+rpcURL)
	}
	return &Client{Backend: ec}, nil
}

// Close releases the RPC connection when the backend holds one.
func (c *Client) Close() {
	if closer, ok := c.Backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Call executes a read-only call against the latest state.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.Backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// Submit broadcasts a signed transaction.
func (c *Client) Submit(ctx context.Context, tx *types.Transaction) error {
	return c.Backend.SendTransaction(ctx, tx)
}

// Receipt fetches a receipt, translating the node's not-found answer into
// invoke.ErrPending so the confirmer keeps polling.
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.Backend.TransactionReceipt(ctx, txHash)
	if stderrors.Is(err, ethereum.NotFound) {
		return nil, invoke.ErrPending
	}
	return receipt, err
}

// RevertReason replays the reverted transaction as a call at its receipt
// block and decodes the Error(string) payload. Nodes disagree on where the
// revert data lands: some return it as call output, others attach it to the
// RPC error.
func (c *Client) RevertReason(ctx context.Context, receipt *types.Receipt) (string, error) {
	tx, _, err := c.Backend.TransactionByHash(ctx, receipt.TxHash)
	if err != nil {
		return "", errors.Transport(errors.PhaseConfirm, err, "fetching reverted transaction")
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return "", errors.Wrap(errors.PhaseConfirm, errors.KindInvalidInput, err, "recovering sender")
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	ret, err := c.Backend.CallContract(ctx, msg, receipt.BlockNumber)
	if err != nil {
		if data, ok := revertData(err); ok {
			if reason, uerr := abi.UnpackRevert(data); uerr == nil {
				return reason, nil
			}
		}
		return "", err
	}
	return abi.UnpackRevert(ret)
}

// revertData digs the revert payload out of an RPC error, when present.
func revertData(err error) ([]byte, bool) {
	de, ok := err.(interface{ ErrorData() interface{} })
	if !ok {
		return nil, false
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return nil, false
	}
	data, derr := hexutil.Decode(hexData)
	if derr != nil {
		return nil, false
	}
	return data, true
}
