package evmcaller

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"github.com/wippyai/evm-caller/chain"
	"github.com/wippyai/evm-caller/coerce"
	"github.com/wippyai/evm-caller/config"
	"github.com/wippyai/evm-caller/contract"
	"github.com/wippyai/evm-caller/errors"
	"github.com/wippyai/evm-caller/invoke"
)

// Session wires configuration, loaded ABIs, the address registry, and the
// chain connection into one invocation surface. Safe for sequential use; one
// session per process is the expected shape.
type Session struct {
	Config    *config.Config
	ABIs      map[string]abi.ABI
	Registry  *contract.Registry
	Client    *chain.Client
	Signer    *chain.KeySigner
	Router    *invoke.Router
	ChainInfo chain.Info
	Log       *zap.Logger
}

// NewSession loads ABIs and the registry, dials the RPC endpoint, and builds
// the router. Sessions without a private key can only read.
func NewSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	abis, err := contract.LoadDir(cfg.ABIDir)
	if err != nil {
		return nil, err
	}

	registry := &contract.Registry{Path: cfg.ContractsFile}
	if err := registry.Load(); err != nil {
		return nil, err
	}

	info, err := chain.ResolveInfo(cfg.ChainID, cfg.ChainsFile)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	client.Log = log

	s := &Session{
		Config:    cfg,
		ABIs:      abis,
		Registry:  registry,
		Client:    client,
		ChainInfo: info,
		Log:       log,
	}

	if cfg.CanWrite() {
		signer, err := chain.NewKeySigner(client.Backend, new(big.Int).SetUint64(cfg.ChainID), cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		signer.GasLimit = cfg.GasLimit
		signer.Log = log
		s.Signer = signer
	}

	confirmer := invoke.NewConfirmer(client, cfg.PollInterval.Std(), cfg.WaitTime.Std())
	confirmer.Log = log
	s.Router = &invoke.Router{
		Client:    client,
		Signer:    s.Signer,
		Confirmer: confirmer,
		Log:       log,
	}

	log.Debug("session ready",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain", cfg.ChainID),
		zap.Int("abis", len(abis)),
		zap.Bool("canWrite", cfg.CanWrite()))
	return s, nil
}

// Close releases the chain connection.
func (s *Session) Close() {
	if s.Client != nil {
		s.Client.Close()
	}
}

// Contract resolves a contract by name, falling back to the configured
// default when name is empty.
func (s *Session) Contract(name string) (*contract.Contract, error) {
	if name == "" {
		name = s.Config.Contract
	}
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, "no contract selected and no default configured")
	}
	return contract.Resolve(name, s.ABIs, s.Registry)
}

// Invoke resolves a method and executes it with positional text arguments,
// coercing each one to its declared ABI type first.
func (s *Session) Invoke(ctx context.Context, contractName, methodName string, rawArgs []string) (invoke.Outcome, error) {
	c, err := s.Contract(contractName)
	if err != nil {
		return invoke.Outcome{}, err
	}
	method, err := c.Method(methodName)
	if err != nil {
		return invoke.Outcome{}, err
	}
	if !invoke.IsRead(method) && s.Signer == nil {
		return invoke.Outcome{}, errors.InvalidInput(errors.PhaseSign,
			"method "+methodName+" mutates state but no private key is configured")
	}

	args, err := CoerceArgs(method, rawArgs)
	if err != nil {
		return invoke.Outcome{}, err
	}
	return s.Router.Invoke(ctx, c.Address, method, args), nil
}

// InvokeCollected executes a method whose arguments are gathered through an
// interactive input source, one prompt per parameter.
func (s *Session) InvokeCollected(ctx context.Context, contractName, methodName string, src coerce.InputSource) (invoke.Outcome, error) {
	c, err := s.Contract(contractName)
	if err != nil {
		return invoke.Outcome{}, err
	}
	method, err := c.Method(methodName)
	if err != nil {
		return invoke.Outcome{}, err
	}
	if !invoke.IsRead(method) && s.Signer == nil {
		return invoke.Outcome{}, errors.InvalidInput(errors.PhaseSign,
			"method "+methodName+" mutates state but no private key is configured")
	}

	args, err := coerce.Collect(method, src)
	if err != nil {
		return invoke.Outcome{}, err
	}
	return s.Router.Invoke(ctx, c.Address, method, args), nil
}

// CoerceArgs converts positional text arguments against a method's declared
// inputs. The counts must match exactly.
func CoerceArgs(method abi.Method, rawArgs []string) ([]any, error) {
	if len(rawArgs) != len(method.Inputs) {
		return nil, errors.New(errors.PhaseCollect, errors.KindInvalidInput).
			Detail("%s takes %d arguments, got %d", method.Name, len(method.Inputs), len(rawArgs)).
			Build()
	}
	args := make([]any, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := coerce.Coerce(raw, method.Inputs[i].Type)
		if err != nil {
			if se, ok := err.(*errors.Error); ok {
				name := method.Inputs[i].Name
				if name == "" {
					name = "arg" + strconv.Itoa(i)
				}
				return nil, se.WithPath(name)
			}
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
