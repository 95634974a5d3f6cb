package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/wippyai/evm-caller/errors"
	"github.com/wippyai/evm-caller/invoke"
)

// KeySigner signs transactions with an in-memory secp256k1 key. Nonce, gas
// limit, and fees are fetched from the backend per transaction; GasLimit
// overrides estimation when non-zero.
type KeySigner struct {
	Backend  Backend
	ChainID  *big.Int
	GasLimit uint64
	Log      *zap.Logger

	key  *ecdsa.PrivateKey
	from common.Address
}

var _ invoke.Signer = (*KeySigner)(nil)

// NewKeySigner parses a hex-encoded private key, with or without 0x prefix.
func NewKeySigner(backend Backend, chainID *big.Int, hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parsing private key")
	}
	return &KeySigner{
		Backend: backend,
		ChainID: chainID,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// From returns the signing account's address.
func (s *KeySigner) From() common.Address {
	return s.from
}

// Sign builds and signs a transaction for the request. Post-London chains get
// a dynamic-fee transaction; chains without a base fee fall back to legacy
// gas pricing.
func (s *KeySigner) Sign(ctx context.Context, req invoke.TxRequest) (*types.Transaction, error) {
	nonce, err := s.Backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, errors.Transport(errors.PhaseSign, err, "fetching nonce")
	}

	head, err := s.Backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Transport(errors.PhaseSign, err, "fetching chain head")
	}

	gas := s.GasLimit
	if gas == 0 {
		gas, err = s.Backend.EstimateGas(ctx, ethereum.CallMsg{
			From: s.from,
			To:   &req.To,
			Data: req.Data,
		})
		if err != nil {
			return nil, errors.Wrap(errors.PhaseSign, errors.KindInvalidInput, err, "estimating gas")
		}
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := s.Backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, errors.Transport(errors.PhaseSign, err, "fetching gas tip cap")
		}
		// Fee cap covers the tip plus twice the current base fee, so the
		// transaction survives base-fee growth while it waits in the pool.
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.ChainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &req.To,
			Data:      req.Data,
		})
	} else {
		gasPrice, err := s.Backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Transport(errors.PhaseSign, err, "fetching gas price")
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &req.To,
			Data:     req.Data,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.ChainID), s.key)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSign, errors.KindInvalidInput, err, "signing transaction")
	}

	if s.Log != nil {
		s.Log.Debug("transaction signed",
			zap.String("from", s.from.Hex()),
			zap.Uint64("nonce", nonce),
			zap.Uint64("gas", gas))
	}
	return signed, nil
}
