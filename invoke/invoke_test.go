package invoke

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/wippyai/evm-caller/errors"
)

const counterABI = `[
	{
		"type": "function", "name": "count", "stateMutability": "view",
		"inputs": [], "outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "function", "name": "add", "stateMutability": "nonpayable",
		"inputs": [{"name": "delta", "type": "uint256"}], "outputs": []
	}
]`

func parseABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(counterABI))
	require.NoError(t, err)
	return parsed
}

type fakeClient struct {
	callRet   []byte
	callErr   error
	callData  []byte
	submitErr error
	submitted []*types.Transaction
	receipt   *types.Receipt
}

func (f *fakeClient) Call(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	f.callData = data
	return f.callRet, f.callErr
}

func (f *fakeClient) Submit(_ context.Context, tx *types.Transaction) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, tx)
	return nil
}

func (f *fakeClient) Receipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, ErrPending
	}
	r := *f.receipt
	r.TxHash = txHash
	return &r, nil
}

type fakeSigner struct {
	err  error
	last TxRequest
}

func (f *fakeSigner) Sign(_ context.Context, req TxRequest) (*types.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.last = req
	return types.NewTx(&types.LegacyTx{
		Nonce:    7,
		To:       &req.To,
		Data:     req.Data,
		Gas:      100000,
		GasPrice: big.NewInt(1),
	}), nil
}

func TestIsRead(t *testing.T) {
	parsed := parseABI(t)
	assert.True(t, IsRead(parsed.Methods["count"]))
	assert.False(t, IsRead(parsed.Methods["add"]))
}

func TestRouter_Read(t *testing.T) {
	parsed := parseABI(t)
	method := parsed.Methods["count"]

	ret, err := method.Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	client := &fakeClient{callRet: ret}
	router := &Router{Client: client}
	to := common.HexToAddress("0x1234")

	outcome := router.Invoke(context.Background(), to, method, nil)
	require.Equal(t, StatusReadResult, outcome.Status)
	require.Len(t, outcome.Values, 1)
	assert.Zero(t, outcome.Values[0].(*big.Int).Cmp(big.NewInt(42)))

	// The call carried the 4-byte selector and nothing else (no inputs).
	assert.Equal(t, method.ID, client.callData)
	// Reads never submit transactions.
	assert.Empty(t, client.submitted)
}

func TestRouter_ReadTransportError(t *testing.T) {
	parsed := parseABI(t)
	client := &fakeClient{callErr: fmt.Errorf("connection refused")}
	router := &Router{Client: client}

	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["count"], nil)
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.PhaseCall, se.Phase)
	assert.Equal(t, cerrors.KindTransport, se.Kind)
}

func TestRouter_ReadDecodeError(t *testing.T) {
	parsed := parseABI(t)
	client := &fakeClient{callRet: []byte{0x01}} // not a valid uint256 word
	router := &Router{Client: client}

	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["count"], nil)
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.PhaseEncode, se.Phase)
}

func TestRouter_WriteSubmitted(t *testing.T) {
	parsed := parseABI(t)
	method := parsed.Methods["add"]
	client := &fakeClient{}
	signer := &fakeSigner{}
	router := &Router{Client: client, Signer: signer}
	to := common.HexToAddress("0xbeef")

	outcome := router.Invoke(context.Background(), to, method, []any{big.NewInt(5)})
	require.Equal(t, StatusWriteSubmitted, outcome.Status)
	require.Len(t, client.submitted, 1)
	assert.Equal(t, client.submitted[0].Hash(), outcome.TxHash)

	// Calldata is selector + packed args, targeted at the contract.
	assert.Equal(t, to, signer.last.To)
	assert.Equal(t, method.ID, signer.last.Data[:4])
	packed, err := method.Inputs.Pack(big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, packed, signer.last.Data[4:])
}

func TestRouter_WriteSignError(t *testing.T) {
	parsed := parseABI(t)
	client := &fakeClient{}
	router := &Router{Client: client, Signer: &fakeSigner{err: fmt.Errorf("no key")}}

	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["add"], []any{big.NewInt(1)})
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.PhaseSign, se.Phase)
	assert.Empty(t, client.submitted, "nothing must reach the chain after a signing failure")
}

func TestRouter_WriteSubmitErrorNotRetried(t *testing.T) {
	parsed := parseABI(t)
	client := &fakeClient{submitErr: fmt.Errorf("insufficient funds")}
	router := &Router{Client: client, Signer: &fakeSigner{}}

	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["add"], []any{big.NewInt(1)})
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.PhaseSubmit, se.Phase)
	assert.Empty(t, client.submitted)
}

func TestRouter_WriteConfirmed(t *testing.T) {
	parsed := parseABI(t)
	client := &fakeClient{receipt: &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(100),
		GasUsed:     21500,
	}}
	router := &Router{
		Client:    client,
		Signer:    &fakeSigner{},
		Confirmer: NewConfirmer(client, 1, 10),
	}

	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["add"], []any{big.NewInt(1)})
	require.Equal(t, StatusWriteConfirmed, outcome.Status)
	require.NotNil(t, outcome.Receipt)
	assert.Equal(t, uint64(21500), outcome.Receipt.GasUsed)
	assert.Equal(t, client.submitted[0].Hash(), outcome.TxHash)
}

func TestRouter_ArgumentShapeMismatch(t *testing.T) {
	parsed := parseABI(t)
	router := &Router{Client: &fakeClient{}}

	// add takes one uint256; an empty vector must fail before any
	// chain interaction.
	outcome := router.Invoke(context.Background(), common.Address{}, parsed.Methods["add"], nil)
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.PhaseEncode, se.Phase)
}
