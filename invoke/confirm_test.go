package invoke

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/wippyai/evm-caller/errors"
)

// pollStep is one scripted answer to a Receipt poll.
type pollStep struct {
	receipt *types.Receipt
	err     error
}

// scriptedChain answers Receipt polls from a script, repeating the last step
// once the script is exhausted.
type scriptedChain struct {
	mu     sync.Mutex
	steps  []pollStep
	polls  int
	reason string
}

func (s *scriptedChain) Call(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, nil
}

func (s *scriptedChain) Submit(context.Context, *types.Transaction) error {
	return nil
}

func (s *scriptedChain) Receipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.polls++
	step := s.steps[i]
	if step.receipt != nil {
		r := *step.receipt
		r.TxHash = txHash
		return &r, step.err
	}
	return nil, step.err
}

func (s *scriptedChain) RevertReason(context.Context, *types.Receipt) (string, error) {
	if s.reason == "" {
		return "", fmt.Errorf("no reason available")
	}
	return s.reason, nil
}

func (s *scriptedChain) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func successReceipt() *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(10),
		GasUsed:     30000,
	}
}

func revertReceipt() *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(10),
	}
}

// runConfirm drives Confirm on a mock clock, advancing time until the
// outcome lands. The tiny real sleep lets the polling goroutine park on the
// mock timer before each advance.
func runConfirm(t *testing.T, c *Confirmer, mock *clock.Mock) Outcome {
	t.Helper()
	done := make(chan Outcome, 1)
	go func() {
		done <- c.Confirm(context.Background(), common.HexToHash("0xabc"))
	}()

	for i := 0; i < 64; i++ {
		select {
		case out := <-done:
			return out
		default:
			time.Sleep(time.Millisecond)
			mock.Add(c.PollInterval)
		}
	}
	t.Fatal("Confirm did not finish")
	return Outcome{}
}

func TestConfirmer_ConfirmedBeforeDeadline(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{
		{err: ErrPending},
		{err: ErrPending},
		{receipt: successReceipt()},
	}}
	mock := clock.NewMock()
	c := &Confirmer{
		Client:       chainDouble,
		Clock:        mock,
		PollInterval: time.Second,
		MaxWait:      30 * time.Second,
	}

	outcome := runConfirm(t, c, mock)
	require.Equal(t, StatusWriteConfirmed, outcome.Status)
	require.NotNil(t, outcome.Receipt)
	assert.Equal(t, uint64(30000), outcome.Receipt.GasUsed)
	assert.Equal(t, 3, chainDouble.pollCount())
}

func TestConfirmer_TimeoutAndNoFurtherPolling(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{{err: ErrPending}}}
	mock := clock.NewMock()
	c := &Confirmer{
		Client:       chainDouble,
		Clock:        mock,
		PollInterval: time.Second,
		MaxWait:      5 * time.Second,
	}

	outcome := runConfirm(t, c, mock)
	require.Equal(t, StatusWriteTimedOut, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.KindTimeout, se.Kind)

	// Reporting a timeout ends the lifecycle: advancing time further must
	// not produce more polls.
	polls := chainDouble.pollCount()
	mock.Add(time.Minute)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, polls, chainDouble.pollCount())
}

func TestConfirmer_RevertWithReason(t *testing.T) {
	chainDouble := &scriptedChain{
		steps:  []pollStep{{receipt: revertReceipt()}},
		reason: "insufficient balance",
	}
	c := NewConfirmer(chainDouble, time.Millisecond, time.Second)

	outcome := c.Confirm(context.Background(), common.HexToHash("0xabc"))
	require.Equal(t, StatusFailed, outcome.Status)
	require.NotNil(t, outcome.Receipt)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.KindReverted, se.Kind)
	assert.Contains(t, se.Error(), "insufficient balance")
}

func TestConfirmer_RevertWithoutReason(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{{receipt: revertReceipt()}}}
	c := NewConfirmer(chainDouble, time.Millisecond, time.Second)

	outcome := c.Confirm(context.Background(), common.HexToHash("0xabc"))
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.KindReverted, se.Kind)
}

func TestConfirmer_TransientTransportErrorRecovers(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{
		{err: fmt.Errorf("connection reset")},
		{err: ErrPending},
		{receipt: successReceipt()},
	}}
	mock := clock.NewMock()
	c := &Confirmer{
		Client:       chainDouble,
		Clock:        mock,
		PollInterval: time.Second,
		MaxWait:      30 * time.Second,
	}

	outcome := runConfirm(t, c, mock)
	require.Equal(t, StatusWriteConfirmed, outcome.Status)
}

func TestConfirmer_PersistentTransportFailure(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{
		{err: fmt.Errorf("connection refused")},
	}}
	mock := clock.NewMock()
	c := &Confirmer{
		Client:       chainDouble,
		Clock:        mock,
		PollInterval: time.Second,
		MaxWait:      5 * time.Second,
	}

	outcome := runConfirm(t, c, mock)
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.KindTransport, se.Kind)
	assert.Equal(t, cerrors.PhaseConfirm, se.Phase)
}

func TestConfirmer_ContextCancelled(t *testing.T) {
	chainDouble := &scriptedChain{steps: []pollStep{{err: ErrPending}}}
	mock := clock.NewMock()
	c := &Confirmer{
		Client:       chainDouble,
		Clock:        mock,
		PollInterval: time.Second,
		MaxWait:      time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() {
		done <- c.Confirm(ctx, common.HexToHash("0xabc"))
	}()

	time.Sleep(5 * time.Millisecond) // first poll happens, loop parks on timer
	cancel()

	outcome := <-done
	require.Equal(t, StatusFailed, outcome.Status)

	var se *cerrors.Error
	require.ErrorAs(t, outcome.Err, &se)
	assert.Equal(t, cerrors.KindCancelled, se.Kind)
}
