package config

import (
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/evm-caller/errors"
)

// Config holds everything a session needs: where the chain is, how to sign,
// where ABIs and address bindings live, and how long to wait for receipts.
type Config struct {
	RPCURL     string `yaml:"rpc_url" validate:"required,url"`
	PrivateKey string `yaml:"private_key,omitempty"`
	ChainID    uint64 `yaml:"chain_id" validate:"required"`

	// WaitTime bounds receipt polling for one write; PollInterval is the
	// gap between polls.
	WaitTime     Duration `yaml:"wait_time"`
	PollInterval Duration `yaml:"poll_interval"`

	ABIDir        string `yaml:"abi_dir" validate:"required"`
	ContractsFile string `yaml:"contracts_file"`
	ChainsFile    string `yaml:"chains_file,omitempty"`

	// Contract preselects a registered contract so single-shot commands can
	// omit the name.
	Contract string `yaml:"contract,omitempty"`

	// GasLimit skips gas estimation when non-zero.
	GasLimit uint64 `yaml:"gas_limit,omitempty"`
}

// Default returns the configuration used when no file exists: a local devnet
// with ABIs next to the working directory.
func Default() *Config {
	return &Config{
		RPCURL:        "http://localhost:8545",
		ChainID:       1,
		WaitTime:      Duration(30 * time.Second),
		PollInterval:  Duration(2 * time.Second),
		ABIDir:        "./abis",
		ContractsFile: "./contracts.json",
	}
}

// Load reads and validates a YAML config file. A missing file yields the
// defaults so first runs work without setup.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "reading config "+path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parsing config "+path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "encoding config")
	}
	// Keys may be present; keep the file private.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "writing config "+path)
	}
	return nil
}

// Validate checks structural constraints plus the domain rules the struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid config")
	}
	if c.WaitTime <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "wait_time must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.InvalidInput(errors.PhaseConfig, "poll_interval must be positive")
	}
	if c.PollInterval > c.WaitTime {
		return errors.InvalidInput(errors.PhaseConfig, "poll_interval cannot exceed wait_time")
	}
	if c.PrivateKey != "" {
		key := strings.TrimPrefix(c.PrivateKey, "0x")
		if len(key) != 64 {
			return errors.InvalidInput(errors.PhaseConfig, "private_key must be 32 bytes of hex")
		}
		if _, err := hex.DecodeString(key); err != nil {
			return errors.InvalidInput(errors.PhaseConfig, "private_key is not valid hex")
		}
	}
	return nil
}

// CanWrite reports whether the config carries signing material.
func (c *Config) CanWrite() bool {
	return c.PrivateKey != ""
}
