package invoke

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/wippyai/evm-caller/errors"
)

// RevertReasoner is an optional chain client capability: given a revert
// receipt, recover the human-readable reason by replaying the call at the
// receipt's block.
type RevertReasoner interface {
	RevertReason(ctx context.Context, receipt *types.Receipt) (string, error)
}

// Confirmer polls for a transaction receipt until a terminal status is
// observed or the wait budget is exhausted. The clock is injected so the
// deadline loop is testable without wall-clock waits.
type Confirmer struct {
	Client       ChainClient
	Clock        clock.Clock
	PollInterval time.Duration
	MaxWait      time.Duration
	Log          *zap.Logger
}

// NewConfirmer returns a Confirmer on the real clock.
func NewConfirmer(client ChainClient, pollInterval, maxWait time.Duration) *Confirmer {
	return &Confirmer{
		Client:       client,
		Clock:        clock.New(),
		PollInterval: pollInterval,
		MaxWait:      maxWait,
	}
}

func (c *Confirmer) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// Confirm drives the Submitted → {Confirmed, TimedOut, Errored} state
// machine. Transient transport errors are retried inside the budget; the
// loop never polls again after reporting a timeout. The transaction may
// still confirm later off-band.
func (c *Confirmer) Confirm(ctx context.Context, txHash common.Hash) Outcome {
	deadline := c.Clock.Now().Add(c.MaxWait)
	sawPending := false
	var lastErr error

	for {
		receipt, err := c.Client.Receipt(ctx, txHash)
		switch {
		case err == nil:
			return c.settle(ctx, receipt)
		case stderrors.Is(err, ErrPending):
			sawPending = true
		default:
			// Transient transport failure: keep polling within the budget.
			lastErr = err
			c.logger().Debug("receipt poll failed",
				zap.String("tx", txHash.Hex()),
				zap.Error(err))
		}

		// Stop once the next poll would land past the deadline.
		if c.Clock.Now().Add(c.PollInterval).After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return failed(errors.Wrap(errors.PhaseConfirm, errors.KindCancelled, ctx.Err(), "confirmation cancelled"))
		case <-c.Clock.After(c.PollInterval):
		}
	}

	if !sawPending && lastErr != nil {
		return failed(errors.Transport(errors.PhaseConfirm, lastErr, "receipt polling failed for the whole wait budget"))
	}
	return Outcome{Status: StatusWriteTimedOut, TxHash: txHash,
		Err: errors.Timeout(txHash.Hex(), c.MaxWait.String())}
}

// settle maps a terminal receipt to an outcome.
func (c *Confirmer) settle(ctx context.Context, receipt *types.Receipt) Outcome {
	if receipt.Status == types.ReceiptStatusSuccessful {
		c.logger().Info("transaction confirmed",
			zap.String("tx", receipt.TxHash.Hex()),
			zap.Uint64("block", receipt.BlockNumber.Uint64()),
			zap.Uint64("gasUsed", receipt.GasUsed))
		return Outcome{Status: StatusWriteConfirmed, TxHash: receipt.TxHash, Receipt: receipt}
	}

	reason := ""
	if rr, ok := c.Client.(RevertReasoner); ok {
		if r, err := rr.RevertReason(ctx, receipt); err == nil {
			reason = r
		}
	}
	out := failed(errors.Reverted(receipt.TxHash.Hex(), reason))
	out.Receipt = receipt
	out.TxHash = receipt.TxHash
	return out
}
