// Command loanctl previews, synthesizes and commits loans from JSON
// definitions, and can run the HTTP server.
//
//	loanctl schedule -f mortgage.json --range whole_loan
//	loanctl synthesize -f mortgage.json
//	loanctl commit -f mortgage.json --db ./data/loans.db --key mortgage-2025
//	loanctl serve --config config.toml
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/loan-engine/config"
	"github.com/warp/loan-engine/factory"
	"github.com/warp/loan-engine/generic"
	"github.com/warp/loan-engine/loan"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals are the persistent flags every subcommand sees.
type globals struct {
	configPath string
	logLevel   string
	loanFile   string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "loanctl",
		Short: "Loan amortization and scheduled-transaction tool",
		Long: `loanctl turns a loan definition (JSON) into its payment schedule and into
the recurring transaction templates an accounting ledger stores.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "config.toml", "TOML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (overrides [log].level)")

	root.AddCommand(
		newScheduleCmd(g),
		newSynthesizeCmd(g),
		newCommitCmd(g),
		newServeCmd(g),
	)
	return root
}

// load reads the config file and applies flag overrides.
func (g *globals) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, cfg.Validate()
}

func (g *globals) logger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return cfg.Log.Logger(cmd.ErrOrStderr())
}

// readLoan parses the loan file named by -f ("-" reads stdin) and fills in
// the configured currency.
func (g *globals) readLoan(cmd *cobra.Command, cfg config.Config) (loan.LoanConfig, error) {
	if g.loanFile == "" {
		return loan.LoanConfig{}, fmt.Errorf("a loan file is required (-f)")
	}
	var (
		data []byte
		err  error
	)
	if g.loanFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(g.loanFile)
	}
	if err != nil {
		return loan.LoanConfig{}, err
	}
	lc, err := factory.NewLoanFactory().ParseLoan(string(data))
	if err != nil {
		return lc, err
	}
	if lc.Currency == "" {
		lc.Currency = cfg.Engine.DefaultCurrency()
	}
	return lc, nil
}

func addLoanFlag(cmd *cobra.Command, g *globals) {
	cmd.Flags().StringVarP(&g.loanFile, "file", "f", "", `Loan definition JSON ("-" for stdin)`)
}

func parseDateFlag(name, value string) (generic.TimePoint, error) {
	if strings.TrimSpace(value) == "" {
		return generic.TimePoint{}, nil
	}
	tp, err := generic.ParseTimePoint(value)
	if err != nil {
		return tp, fmt.Errorf("--%s: %w", name, err)
	}
	return tp, nil
}
