package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	evmcaller "github.com/wippyai/evm-caller"
	"github.com/wippyai/evm-caller/coerce"
	"github.com/wippyai/evm-caller/config"
	"github.com/wippyai/evm-caller/contract"
	"github.com/wippyai/evm-caller/invoke"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	rpcURL     string
	chainID    uint64
	wait       time.Duration
	contract   string
	verbose    bool
	yes        bool
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "evm-caller",
		Short:         "Invoke smart-contract methods from their ABI",
		Long:          "evm-caller reads contract ABIs and turns typed text input into\ncontract calls: reads via eth_call, writes as signed transactions\nconfirmed by receipt polling.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "config.yaml", "path to the YAML config file")
	pf.StringVar(&flags.rpcURL, "rpc-url", "", "override the configured RPC endpoint")
	pf.Uint64Var(&flags.chainID, "chain-id", 0, "override the configured chain ID")
	pf.DurationVar(&flags.wait, "wait", 0, "override the receipt wait budget")
	pf.StringVar(&flags.contract, "contract", "", "contract name (defaults to the configured one)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newReadCmd(flags),
		newWriteCmd(flags),
		newMethodsCmd(flags),
		newContractsCmd(flags),
		newTUICmd(flags),
	)
	return root
}

func (f *cliFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func (f *cliFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.rpcURL != "" {
		cfg.RPCURL = f.rpcURL
	}
	if f.chainID != 0 {
		cfg.ChainID = f.chainID
	}
	if f.wait != 0 {
		cfg.WaitTime = config.Duration(f.wait)
	}
	if f.contract != "" {
		cfg.Contract = f.contract
	}
	return cfg, cfg.Validate()
}

func (f *cliFlags) openSession(ctx context.Context) (*evmcaller.Session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	return evmcaller.NewSession(ctx, cfg, f.logger())
}

// stdinSource prompts on stdout and reads one line per parameter, the
// fallback when arguments are not given positionally.
func stdinSource() coerce.InputSource {
	reader := bufio.NewReader(os.Stdin)
	return coerce.InputFunc(func(prompt string) (string, error) {
		fmt.Print(prompt + " ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	})
}

func invokeCmd(flags *cliFlags, wantWrite bool, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	session, err := flags.openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	methodName := args[0]
	c, err := session.Contract(flags.contract)
	if err != nil {
		return err
	}
	method, err := c.Method(methodName)
	if err != nil {
		return err
	}
	if wantWrite && invoke.IsRead(method) {
		return fmt.Errorf("%s is read-only; use the read command", methodName)
	}
	if !wantWrite && !invoke.IsRead(method) {
		return fmt.Errorf("%s mutates state; use the write command", methodName)
	}

	if wantWrite && !flags.yes {
		if !confirmWrite(c, method) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var outcome invoke.Outcome
	if len(args) == 1 && len(method.Inputs) > 0 {
		outcome, err = session.InvokeCollected(ctx, c.Name, methodName, stdinSource())
	} else {
		outcome, err = session.Invoke(ctx, c.Name, methodName, args[1:])
	}
	if err != nil {
		return err
	}
	return printOutcome(os.Stdout, method, outcome)
}

// confirmWrite asks for explicit approval before a state-changing call.
func confirmWrite(c *contract.Contract, method abi.Method) bool {
	fmt.Printf("About to send %s to %s (%s).\n", method.Sig, c.Name, c.Address.Hex())
	fmt.Print("Continue? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newReadCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "read <method> [args...]",
		Short: "Call a view or pure method and print its return values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeCmd(flags, false, cmd, args)
		},
	}
}

func newWriteCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <method> [args...]",
		Short: "Sign and submit a state-changing method, then wait for the receipt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeCmd(flags, true, cmd, args)
		},
	}
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newMethodsCmd(flags *cliFlags) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the selected contract's methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := contract.ParseMethodKind(kindFlag)
			if err != nil {
				return err
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			abis, err := contract.LoadDir(cfg.ABIDir)
			if err != nil {
				return err
			}
			name := cfg.Contract
			if name == "" {
				return fmt.Errorf("no contract selected; pass --contract")
			}
			parsed, ok := abis[name]
			if !ok {
				return fmt.Errorf("no ABI loaded for %q", name)
			}

			c := &contract.Contract{Name: name, ABI: parsed}
			for _, m := range c.Methods(kind) {
				tag := "write"
				if invoke.IsRead(m) {
					tag = "read "
				}
				fmt.Printf("  %s  %s\n", tag, m.Sig)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "all", "filter methods: read, write, or all")
	return cmd
}

func newContractsCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Manage the name→address registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(flags)
			if err != nil {
				return err
			}
			for _, name := range reg.Names() {
				addr, err := reg.Address(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-20s %s\n", name, addr.Hex())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <name> <address>",
		Aliases: []string{"add"},
		Short:   "Bind a contract name to a deployed address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(flags)
			if err != nil {
				return err
			}
			if err := reg.Set(args[0], args[1]); err != nil {
				return err
			}
			return reg.Save()
		},
	})

	return cmd
}

func openRegistry(flags *cliFlags) (*contract.Registry, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	reg := &contract.Registry{Path: cfg.ContractsFile}
	if err := reg.Load(); err != nil {
		return nil, err
	}
	return reg, nil
}

func newTUICmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive mode: pick a method, fill in arguments, see the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("interactive mode needs a terminal")
			}
			session, err := flags.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()
			return runInteractive(session, flags.contract)
		},
	}
}
