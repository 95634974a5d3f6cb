package chain

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/evm-caller/invoke"
)

// fakeBackend scripts the JSON-RPC surface the package uses.
type fakeBackend struct {
	callRet    []byte
	callErr    error
	lastCall   ethereum.CallMsg
	lastBlock  *big.Int
	sendErr    error
	sent       []*types.Transaction
	receipt    *types.Receipt
	receiptErr error
	tx         *types.Transaction

	nonce        uint64
	tip          *big.Int
	gasPrice     *big.Int
	baseFee      *big.Int
	gasEstimate  uint64
	estimateUsed bool
	closed       bool
}

func (f *fakeBackend) Close() {
	f.closed = true
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.lastCall = msg
	f.lastBlock = block
	return f.callRet, f.callErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return f.receipt, f.receiptErr
}

func (f *fakeBackend) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return f.tx, false, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee, Number: big.NewInt(1)}, nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.estimateUsed = true
	return f.gasEstimate, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

// revertPayload encodes Error(string) revert data for a reason.
func revertPayload(t *testing.T, reason string) []byte {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return append(selector, packed...)
}

func TestClient_Call(t *testing.T) {
	backend := &fakeBackend{callRet: []byte{0x01}}
	client := &Client{Backend: backend}
	to := common.HexToAddress("0xbeef")
	data := []byte{0xde, 0xad}

	ret, err := client.Call(context.Background(), to, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, ret)
	assert.Equal(t, to, *backend.lastCall.To)
	assert.Equal(t, data, backend.lastCall.Data)
	assert.Nil(t, backend.lastBlock, "reads run against latest state")
}

func TestClient_Close(t *testing.T) {
	backend := &fakeBackend{}
	client := &Client{Backend: backend}

	client.Close()
	assert.True(t, backend.closed)
}

func TestClient_Submit(t *testing.T) {
	backend := &fakeBackend{}
	client := &Client{Backend: backend}
	tx := signedTestTx(t)

	require.NoError(t, client.Submit(context.Background(), tx))
	require.Len(t, backend.sent, 1)
	assert.Equal(t, tx.Hash(), backend.sent[0].Hash())

	backend.sendErr = fmt.Errorf("nonce too low")
	assert.Error(t, client.Submit(context.Background(), tx))
}

func TestClient_ReceiptPendingTranslation(t *testing.T) {
	backend := &fakeBackend{receiptErr: ethereum.NotFound}
	client := &Client{Backend: backend}

	_, err := client.Receipt(context.Background(), common.HexToHash("0x1"))
	assert.ErrorIs(t, err, invoke.ErrPending)
}

func TestClient_ReceiptPassthrough(t *testing.T) {
	backend := &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}
	client := &Client{Backend: backend}

	receipt, err := client.Receipt(context.Background(), common.HexToHash("0x1"))
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func signedTestTx(t *testing.T) *types.Transaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := common.HexToAddress("0xbeef")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     0,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Data:      []byte{0x01},
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(1)), key)
	require.NoError(t, err)
	return signed
}

func TestClient_RevertReasonFromCallOutput(t *testing.T) {
	tx := signedTestTx(t)
	backend := &fakeBackend{
		tx:      tx,
		callRet: revertPayload(t, "out of funds"),
	}
	client := &Client{Backend: backend}
	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(42),
	}

	reason, err := client.RevertReason(context.Background(), receipt)
	require.NoError(t, err)
	assert.Equal(t, "out of funds", reason)
	// The replay runs at the receipt's block.
	assert.Equal(t, big.NewInt(42), backend.lastBlock)
}

type dataError struct {
	data string
}

func (e *dataError) Error() string          { return "execution reverted" }
func (e *dataError) ErrorData() interface{} { return e.data }

func TestClient_RevertReasonFromErrorData(t *testing.T) {
	tx := signedTestTx(t)
	backend := &fakeBackend{
		tx:      tx,
		callErr: &dataError{data: hexutil.Encode(revertPayload(t, "paused"))},
	}
	client := &Client{Backend: backend}
	receipt := &types.Receipt{TxHash: tx.Hash(), BlockNumber: big.NewInt(42)}

	reason, err := client.RevertReason(context.Background(), receipt)
	require.NoError(t, err)
	assert.Equal(t, "paused", reason)
}

func TestClient_RevertReasonUnavailable(t *testing.T) {
	tx := signedTestTx(t)
	backend := &fakeBackend{
		tx:      tx,
		callErr: fmt.Errorf("execution reverted"),
	}
	client := &Client{Backend: backend}
	receipt := &types.Receipt{TxHash: tx.Hash(), BlockNumber: big.NewInt(42)}

	_, err := client.RevertReason(context.Background(), receipt)
	assert.Error(t, err)
}
